// Package version holds the build version string.
package version

// Version is set at build time via -ldflags "-X summarizeit/internal/core/version.Version=..."
var Version = "0.3.0"
