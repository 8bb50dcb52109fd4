// FILE: logvault/src/internal/version/version.go
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is set at compile time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String returns a formatted version string
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s)", Version, GitCommit, BuildTime, runtime.Version())
}

// Short returns just the version tag
func Short() string {
	return Version
}

// ServerName is the value of the HTTP Server header
func ServerName() string {
	return "LogVault/" + Version
}

// Info returns build metadata for status reporting
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     GitCommit,
		"build_time": BuildTime,
		"go":         runtime.Version(),
	}
}
