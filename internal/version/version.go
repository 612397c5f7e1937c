// Package version exposes build-time version information.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables injected via ldflags.
var (
	// Version is the semantic version, injected at build time.
	Version = "dev"

	// GitCommit is the git commit hash, injected at build time.
	GitCommit = "unknown"

	// GoVersion is the Go version used to build.
	GoVersion = runtime.Version()
)

// Full returns the version with the commit hash when one is available.
func Full() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return fmt.Sprintf("%s (%s)", Version, short(GitCommit))
	}
	return Version
}

func short(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
