package observability

import (
	"io"
	"log/slog"
)

// AppMode identifies how the binary was started.
type AppMode string

// Application modes.
const (
	// ModeCLI is a one-shot run over a set of paths.
	ModeCLI AppMode = "cli"
	// ModeWatch is a long-running watch over a directory tree.
	ModeWatch AppMode = "watch"
)

const (
	defaultServiceName        = "codeshift"
	defaultShutdownTimeoutSec = 5
)

// Config controls logging and telemetry export.
type Config struct {
	// LogOutput receives log records. Nil means os.Stderr.
	LogOutput io.Writer

	// OTLPHeaders are sent with every export request.
	OTLPHeaders map[string]string

	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is the gRPC collector address. Empty disables export.
	OTLPEndpoint string

	SampleRatio        float64
	ShutdownTimeoutSec int
	LogLevel           slog.Level
	LogJSON            bool
	OTLPInsecure       bool
}

// DefaultConfig returns a configuration that logs text at info level and
// exports nothing.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ParseLevel maps a level name to a slog level. Unknown names yield info.
func ParseLevel(name string) slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}
