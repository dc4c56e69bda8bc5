// Package version exposes build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/grovetools/br0wse/version.Version=v0.3.0"
package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build metadata.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Short returns "<version> (<commit>)", or just the version for dev builds.
func (i Info) Short() string {
	if i.Commit == "" || i.Commit == "none" {
		return i.Version
	}
	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (%s)", i.Version, commit)
}

// String returns a multi-line report.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Version:  %s\n", i.Version)
	fmt.Fprintf(&b, "  Commit:   %s\n", i.Commit)
	fmt.Fprintf(&b, "  Built:    %s\n", i.BuildDate)
	fmt.Fprintf(&b, "  Go:       %s\n", i.GoVersion)
	fmt.Fprintf(&b, "  Platform: %s", i.Platform)
	return b.String()
}
