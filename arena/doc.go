// Package arena provides named bump allocators used as transformation- and
// iteration-scoped scratch space (spec.md §9 "Global mutable state" design
// note: no package-level mutable state — every subsystem's scratch memory
// is an explicit, owned arena threaded through call sites instead). It is
// bounded reusable scratch, not a general-purpose GC replacement.
package arena
