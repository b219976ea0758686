// Package version exposes build metadata for the finchat binary.
package version

import "fmt"

// Version is set at build time with -ldflags "-X .../version.Version=...".
var Version = "dev"

// BuildTime is set at build time with -ldflags.
var BuildTime = "unknown"

// String returns the formatted version line printed by `finchat --version`.
func String() string {
	return fmt.Sprintf("finchat version %s (built %s)", Version, BuildTime)
}
