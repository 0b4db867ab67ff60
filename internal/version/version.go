// Package version carries build metadata stamped at link time, for example
//
//	go build -ldflags "-X github.com/banshee-data/pointstruct/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	// Version is the release tag. Local builds report "dev".
	Version = "dev"
	// GitSHA identifies the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String renders the one-line form the binaries print for -version.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
