// Package version holds build metadata stamped via ldflags.
package version

//nolint:revive // Set at build time:
// -ldflags "-X .../internal/version.Version=... -X .../internal/version.Commit=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the stamped metadata in one line for --version output.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ")"
}
