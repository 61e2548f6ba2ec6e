package config

import (
	"fmt"

	"github.com/Sumatoshi-tech/codeshift/pkg/observability"
	"github.com/Sumatoshi-tech/codeshift/pkg/pipeline"
	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

// ApplyToRunner builds the pipeline settings for plugins. Rule options are
// checked against what each rule declares; options for rules that are not
// selected are ignored.
func (c *Config) ApplyToRunner(plugins []*transform.Plugin) (pipeline.Config, error) {
	maxSize, err := c.MaxFileSizeBytes()
	if err != nil {
		return pipeline.Config{}, err
	}

	var dialect syntax.Dialect

	if c.Pipeline.Dialect != "" {
		dialect, err = syntax.ParseDialect(c.Pipeline.Dialect)
		if err != nil {
			return pipeline.Config{}, fmt.Errorf("pipeline.dialect: %w", err)
		}
	}

	options := make(map[string]transform.Options, len(plugins))

	for _, plugin := range plugins {
		resolved, resolveErr := plugin.ResolveOptions(c.RuleOptions[plugin.Name()])
		if resolveErr != nil {
			return pipeline.Config{}, fmt.Errorf("rule_options: %w", resolveErr)
		}

		options[plugin.Name()] = resolved
	}

	return pipeline.Config{
		Options:        options,
		Rules:          plugins,
		Policy:         pipeline.Policy(c.Pipeline.Policy),
		Dialect:        dialect,
		Workers:        c.Pipeline.Workers,
		MaxFileSize:    maxSize,
		IgnoreManifest: c.Pipeline.IgnoreManifest,
	}, nil
}

// ApplyToObservability fills the logging and telemetry part of cfg.
func (c *Config) ApplyToObservability(cfg observability.Config) observability.Config {
	if c.Log.Level != "" {
		cfg.LogLevel = observability.ParseLevel(c.Log.Level)
	}

	cfg.LogJSON = c.Log.JSON
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.SampleRatio = c.Telemetry.SampleRatio
	cfg.Environment = c.Telemetry.Environment

	return cfg
}
