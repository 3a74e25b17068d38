// Package version holds build version information.
// Version is overridden at build time via -ldflags.
package version

// Version is the application version reported by the system endpoints.
var Version = "dev"
