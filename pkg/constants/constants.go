// Package constants provides shared constants used throughout budgetcheck.
// This includes reconciliation defaults, file permissions and artifact
// naming formats that should be consistent across the application.
package constants

import "time"

// Reconciliation defaults
const (
	// DefaultTolerance is the relative price tolerance used when none is configured (5%)
	DefaultTolerance = 0.05

	// MinTolerance and MaxTolerance bound the tolerance accepted by the job runner
	MinTolerance = 0.0
	MaxTolerance = 1.0

	// DefaultCompareDescriptions toggles description comparison by default
	DefaultCompareDescriptions = true
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the permission every exported artifact ends up with (rw-r--r--)
	FilePermissions = 0644
)

// Path constants
const (
	// DefaultOutDir is where artifacts are written when no directory is configured
	DefaultOutDir = "output"

	// ConfigFileName is the base name of the optional config file
	ConfigFileName = ".budgetcheck"
)

// Job constants
const (
	// JobIDPrefixLength is how many characters of the job ID end up in artifact names
	JobIDPrefixLength = 8
)

// Format constants
const (
	// TimeFormatISO8601 is the ISO 8601 time format used in report metadata
	TimeFormatISO8601 = time.RFC3339

	// TimeFormatFilename is the format used in generated artifact names
	TimeFormatFilename = "20060102150405"

	// TimeFormatListing is how the files command shows modification times
	TimeFormatListing = "2006-01-02 15:04:05"
)
