// Package version exposes build metadata for the codeshift binary.
package version

import "runtime/debug"

// Set at link time with -ldflags "-X github.com/Sumatoshi-tech/codeshift/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const unknownValue = "unknown"

// InitBinaryVersion fills values the linker left unset from the module
// build info recorded by the go tool.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" && setting.Value != "" {
				Commit = shortHash(setting.Value)
			}
		case "vcs.time":
			if Date == unknownValue && setting.Value != "" {
				Date = setting.Value
			}
		}
	}
}

func shortHash(hash string) string {
	const size = 12

	if len(hash) > size {
		return hash[:size]
	}

	return hash
}

// String renders the one-line version banner.
func String() string {
	return "codeshift " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
