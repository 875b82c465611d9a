/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/

// Package version exposes the binary's build metadata. The release pipeline
// injects Version, GitCommit and BuildDate via -ldflags; a plain `go build`
// falls back to module build info where it is available.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Short returns the bare version string, e.g. for --version output.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// Info returns the full multi-line version report.
func Info() string {
	return fmt.Sprintf(`stackhand %s
  Git commit: %s
  Build date: %s
  Go version: %s
  Platform:   %s/%s`, Short(), GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
