// Package version carries build metadata injected at link time.
package version

import "runtime"

var (
	// GitRelease is the release tag, set via -ldflags.
	GitRelease = "dev"
	// GitCommit is the commit hash the binary was built from.
	GitCommit = "unknown"
	// GitCommitDate is the commit date.
	GitCommitDate = "unknown"
	// GoInfo is the toolchain that built the binary.
	GoInfo = runtime.Version()
)
