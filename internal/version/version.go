// Package version exposes build-time version metadata.
package version

import "fmt"

// Set via -ldflags at build time. "dev" values are used for local builds.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Info returns a human-readable version line.
func Info() string {
	return fmt.Sprintf("camhub %s (commit %s, built %s)", Version, Commit, Date)
}

// Map returns version metadata for JSON responses.
func Map() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}
