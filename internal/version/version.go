// Package version holds build metadata injected with -ldflags.
package version

import "fmt"

// Name is the program name used in CLI output and outbound requests.
const Name = "healthdash"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies healthdash on outbound health check requests.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", Name, Version)
}

// String is the one-line summary printed by the version command.
func String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", Name, Version, Commit, Date)
}
