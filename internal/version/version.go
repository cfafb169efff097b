// Package version holds build metadata, set at build time with -ldflags.
package version

var (
	Version = "0.1.0"
	Commit  = "dev"
)

// String returns the version and commit for display.
func String() string {
	return Version + " (" + Commit + ")"
}
