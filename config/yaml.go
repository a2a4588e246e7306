package config

import (
	"io"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors StartupConfig's exported fields for YAML decode;
// a missing general-stack policy or size falls back to NewStartupConfig's
// defaults rather than to Go's own zero values. GraphRuntimeConfig has no
// YAML decode path.
type fileConfig struct {
	Verbose            bool   `yaml:"verbose"`
	Standalone         bool   `yaml:"standalone"`
	ClusterIndex       int    `yaml:"cluster_index"`
	GeneralStackPolicy string `yaml:"general_stack_policy"`
	GeneralStackSize   int    `yaml:"general_stack_size"`
	ExportSRDAG        bool   `yaml:"export_srdag"`
	ExportTrace        bool   `yaml:"export_trace"`
	AdaptiveStatic     bool   `yaml:"adaptive_static"`
}

// LoadStartupConfig decodes a StartupConfig from YAML, starting from
// NewStartupConfig's defaults and overlaying whatever r specifies.
func LoadStartupConfig(r io.Reader) (*StartupConfig, error) {
	var fc fileConfig
	if err := yaml.NewDecoder(r).Decode(&fc); err != nil && err != io.EOF {
		return nil, err
	}

	opts := []StartupOption{
		WithVerbose(fc.Verbose),
		WithSRDAGExport(fc.ExportSRDAG),
		WithTraceExport(fc.ExportTrace),
		WithAdaptiveStatic(fc.AdaptiveStatic),
	}
	if fc.Standalone {
		opts = append(opts, WithStandalone(fc.ClusterIndex))
	}

	c := NewStartupConfig(opts...)
	if fc.GeneralStackPolicy == "LINEAR_STATIC" {
		c.GeneralStackPolicy = AllocatorLinearStatic
	}
	if fc.GeneralStackSize > 0 {
		c.GeneralStackSize = fc.GeneralStackSize
	}
	return c, nil
}
