// Package buildinfo holds the version stamped in at link time:
//
//	go build -ldflags "-X github.com/highwaype/highwaype/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/highwaype/highwaype/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/highwaype/highwaype/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	Version = "dev"     // semantic version, e.g. v1.2.3
	Commit  = "none"    // git commit SHA
	Date    = "unknown" // build timestamp
)

// String returns the three values on separate lines.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// Short identifies the build in generated files and cache scopes. Release
// builds return Version; development builds append up to 7 commit characters.
func Short() string {
	if Version != "dev" || Commit == "none" {
		return Version
	}
	c := Commit
	if len(c) > 7 {
		c = c[:7]
	}
	return Version + "+" + c
}
