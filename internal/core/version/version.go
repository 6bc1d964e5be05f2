// Package version provides build information for the danmood binary
package version

import "runtime/debug"

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version,omitempty"`
}

// Info returns the build information. version, commit and date are set with
// -ldflags "-X 'danmood/internal/core/version.version=v0.1.0' ..."
func Info() BuildInfo {
	bi := BuildInfo{
		Service: "danmood",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		bi.GoVersion = info.GoVersion
	}
	return bi
}

// String renders a one-line summary
func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
