// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/geodex/internal/version.Version=...
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Describe formats v with the build commit and date, as printed by the
// binaries on startup and by `geodexctl version`.
func Describe(v string) string {
	return fmt.Sprintf("%s (commit %s, built %s)", v, Commit, Date)
}
