package config

import "github.com/Sumatoshi-tech/riley/pkg/variantfix"

// Patch defaults.
const (
	DefaultPatchRoot   = "."
	DefaultPatchDryRun = false
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Telemetry defaults.
const (
	DefaultSampleRatio  = 0.0
	DefaultOTLPInsecure = false
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultPatchWrapper is the conversion call inserted by the patcher.
const DefaultPatchWrapper = variantfix.DefaultWrapper

// DefaultPatchTargets returns the files patched when none are configured.
func DefaultPatchTargets() []string {
	return variantfix.DefaultTargets()
}
