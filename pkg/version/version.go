// Package version exposes build metadata injected at link time.
package version

import (
	"runtime"
)

var (
	// Version is the semantic version, injected via -ldflags.
	Version = "dev"
	// GitCommit is the git commit hash, injected via -ldflags.
	GitCommit = "unknown"
	// BuildDate is the build timestamp, injected via -ldflags.
	BuildDate = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
