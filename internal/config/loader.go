package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".codeshift"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for codeshift settings.
const envPrefix = "CODESHIFT"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Pipeline defaults.
const (
	DefaultPipelineWorkers        = 0
	DefaultPipelinePolicy         = "skip-file"
	DefaultPipelineDialect        = ""
	DefaultPipelineMaxFileSize    = "1MiB"
	DefaultPipelineIgnoreManifest = false
)

// Watch, log and telemetry defaults.
const (
	DefaultWatchDebounce        = "250ms"
	DefaultLogLevel             = "info"
	DefaultLogJSON              = false
	DefaultTelemetryEndpoint    = ""
	DefaultTelemetrySampleRatio = 1.0
	DefaultTelemetryInsecure    = false
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("rules", []string{})

	viperCfg.SetDefault("pipeline.workers", DefaultPipelineWorkers)
	viperCfg.SetDefault("pipeline.policy", DefaultPipelinePolicy)
	viperCfg.SetDefault("pipeline.dialect", DefaultPipelineDialect)
	viperCfg.SetDefault("pipeline.max_file_size", DefaultPipelineMaxFileSize)
	viperCfg.SetDefault("pipeline.ignore_manifest", DefaultPipelineIgnoreManifest)

	viperCfg.SetDefault("watch.debounce", DefaultWatchDebounce)

	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryEndpoint)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryInsecure)
}
