// Package config holds the two configuration structs spec.md §6 names:
// StartupConfig (process-wide flags) and GraphRuntimeConfig (per-graph
// execution policy). Both are built through functional options, the same
// GraphOption/EdgeOption pattern lvlath's core package applies to graph
// construction, with an optional YAML decode path for file-driven setups.
package config
