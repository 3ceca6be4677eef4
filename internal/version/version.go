// Package version holds the build information stamped in by the linker.
package version

import "runtime"

var (
	// Version is the current version of the application.
	// Set at build time with -ldflags "-X main.version=v1.0.0".
	Version = "dev"

	// GitCommit is the git commit hash
	GitCommit = "unknown"

	// BuildDate is the build date
	BuildDate = "unknown"
)

// Info represents version information
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// Set records the build information. Empty values keep the defaults.
func Set(version, buildDate, gitCommit string) {
	if version != "" {
		Version = version
	}
	if buildDate != "" {
		BuildDate = buildDate
	}
	if gitCommit != "" {
		GitCommit = gitCommit
	}
}

// GetVersion returns the current version information
func GetVersion() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}
