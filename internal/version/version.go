// Package version holds build-time version metadata.
package version

import "fmt"

var (
	// Version is set via -ldflags at build time.
	Version = "dev"
	// Commit is the short git hash, set via -ldflags.
	Commit = "none"
	// BuildDate is set via -ldflags.
	BuildDate = "unknown"
)

// String returns the full version description.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
}
