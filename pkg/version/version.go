// Package version exposes the agent's build identity.
package version

// Injected at release time via -ldflags; a plain source build reports the
// dev placeholders.
//
//nolint:gochecknoglobals // ldflags targets must be package globals
var (
	version = "0.0.0-dev"
	buildID = "source"
)

// GetVersion returns the agent version.
func GetVersion() string {
	return version
}

// GetBuildID returns the build identifier.
func GetBuildID() string {
	return buildID
}

// GetFullVersion returns the version with the build identifier appended.
func GetFullVersion() string {
	return version + "+" + buildID
}
