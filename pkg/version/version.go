// Package version exposes build metadata for the riley binary.
package version

import (
	"runtime/debug"
)

// Build metadata, overridden with -ldflags "-X" at release time.
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)

const vcsRevisionKey = "vcs.revision"

const vcsTimeKey = "vcs.time"

// InitBinaryVersion fills Version, Commit and Date from the embedded Go build
// info when they were not set through linker flags.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case vcsRevisionKey:
			if Commit == "<unknown>" {
				Commit = setting.Value
			}
		case vcsTimeKey:
			if Date == "<unknown>" {
				Date = setting.Value
			}
		}
	}
}
