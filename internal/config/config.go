// Package config loads codeshift settings from .codeshift.yaml, CODESHIFT_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/codeshift/pkg/pipeline"
)

// Config is the top-level configuration struct for codeshift.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	RuleOptions map[string]map[string]any `mapstructure:"rule_options"`
	Rules       []string                  `mapstructure:"rules"`
	Pipeline    PipelineConfig            `mapstructure:"pipeline"`
	Watch       WatchConfig               `mapstructure:"watch"`
	Log         LogConfig                 `mapstructure:"log"`
	Telemetry   TelemetryConfig           `mapstructure:"telemetry"`
}

// PipelineConfig holds file processing knobs.
type PipelineConfig struct {
	Policy         string `mapstructure:"policy"`
	Dialect        string `mapstructure:"dialect"`
	MaxFileSize    string `mapstructure:"max_file_size"`
	Workers        int    `mapstructure:"workers"`
	IgnoreManifest bool   `mapstructure:"ignore_manifest"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("pipeline.workers must be non-negative")
	// ErrInvalidPolicy indicates an unknown failure policy.
	ErrInvalidPolicy = errors.New("pipeline.policy must be skip-file, abort or continue")
	// ErrInvalidMaxFileSize indicates a size that does not parse.
	ErrInvalidMaxFileSize = errors.New("pipeline.max_file_size must be a size such as 1MiB")
	// ErrInvalidDebounce indicates a negative debounce.
	ErrInvalidDebounce = errors.New("watch.debounce must be non-negative")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("log.level must be debug, info, warn or error")
	// ErrInvalidSampleRatio indicates a ratio outside [0, 1].
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	pipelineErr := c.validatePipeline()
	if pipelineErr != nil {
		return pipelineErr
	}

	if c.Watch.Debounce < 0 {
		return ErrInvalidDebounce
	}

	var level slog.Level

	if c.Log.Level != "" && level.UnmarshalText([]byte(c.Log.Level)) != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers < 0 {
		return ErrInvalidWorkers
	}

	_, err := pipeline.ParsePolicy(c.Pipeline.Policy)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPolicy, c.Pipeline.Policy)
	}

	_, err = c.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	return nil
}

// MaxFileSizeBytes parses pipeline.max_file_size. Empty or zero disables
// the limit.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	if c.Pipeline.MaxFileSize == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.Pipeline.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxFileSize, c.Pipeline.MaxFileSize)
	}

	return int64(size), nil
}
