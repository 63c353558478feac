// Package buildinfo holds the version stamped into release builds.
//
// Variables are set via ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/releasecal/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/releasecal/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/releasecal/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/releasecal
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("releasecal %s (commit %s, built %s)", Version, Commit, Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// UserAgent identifies outgoing requests and the preview server.
func UserAgent() string {
	return "releasecal/" + Version
}
