// Package version reports the build version of the binary.
package version

import (
	"runtime/debug"
	"sync"
)

// Overridden with -ldflags "-X github.com/memohai/recallbot/internal/version.Version=...".
var (
	Version    = "dev"
	CommitHash = ""
	BuildTime  = ""
)

// Build describes the running binary.
type Build struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Time    string `json:"time,omitempty"`
}

var (
	buildOnce sync.Once
	build     Build
)

// Get returns ldflags values, falling back to the VCS stamp embedded by the
// go tool when CommitHash was not set.
func Get() Build {
	buildOnce.Do(func() {
		build = Build{Version: Version, Commit: CommitHash, Time: BuildTime}
		if build.Commit != "" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		build = fromSettings(build, info.Settings)
	})
	return build
}

func fromSettings(b Build, settings []debug.BuildSetting) Build {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			b.Commit = s.Value
		case "vcs.time":
			b.Time = s.Value
		}
	}
	return b
}

// String renders "version (shortcommit)".
func (b Build) String() string {
	if b.Commit == "" {
		return b.Version
	}
	short := b.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return b.Version + " (" + short + ")"
}

// GetInfo is shorthand for Get().String().
func GetInfo() string {
	return Get().String()
}
