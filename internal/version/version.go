// Package version carries build metadata injected with -ldflags -X.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the one-line program identification written into
// measurement headers.
func String() string {
	return fmt.Sprintf("twopoint %s (%s, built %s)", Version, GitSHA, BuildTime)
}
