package app

import (
	"fmt"
	"runtime/debug"
)

// Version and Commit may be set via ldflags at build time:
//
//	go build -ldflags "-X github.com/marineevidence/combinedmap/internal/app.Version=1.2.0"
//
// When Commit is not set, the VCS revision embedded by the go tool is used.
var (
	Version = "dev"
	Commit  = ""
)

// BuildVersion returns the version string logged at command startup.
func BuildVersion() string {
	return fmt.Sprintf("%s (%s)", Version, commit())
}

func commit() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}
