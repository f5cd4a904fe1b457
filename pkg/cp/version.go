package cp

import "runtime"

// Version is the release of the propagation kernel.
const Version = "0.1.0"

// VersionInfo provides detailed version information.
type VersionInfo struct {
	Version    string   `json:"version"`
	GoVersion  string   `json:"go_version"`
	Strategies []string `json:"strategies"`
}

// GetVersionInfo returns detailed version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:    Version,
		GoVersion:  runtime.Version(),
		Strategies: StrategyNames(),
	}
}
