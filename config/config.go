// Package config holds warden's supervisor configuration: where the
// supervised program lives, how its time limit is resolved, and where the
// stable release is fetched from during rollback.
package config

// Config represents the full warden configuration
type Config struct {
	Run       RunConfig       `mapstructure:"run"`
	TimeLimit TimeLimitConfig `mapstructure:"timelimit"`
	API       APIConfig       `mapstructure:"api"`
	Rollback  RollbackConfig  `mapstructure:"rollback"`
}

// RunConfig configures how the supervised program is invoked
type RunConfig struct {
	// ProgramDir is the directory holding the active program tree. It is
	// the working directory of every invocation and the directory replaced
	// during rollback.
	ProgramDir string `mapstructure:"program_dir"`

	// DiagnosticFlag is appended to the argument vector for the
	// best-effort diagnostic re-run after a failure (default: "-f",
	// meaning "upload failure logs").
	DiagnosticFlag string `mapstructure:"diagnostic_flag"`
}

// TimeLimitConfig configures wall-clock time limit resolution
type TimeLimitConfig struct {
	// Override, when set, is used verbatim as the time limit and no remote
	// lookup happens. Duration string, e.g. "10h".
	Override string `mapstructure:"override"`

	// Endpoint is the remote time-limit lookup URL. Empty disables the
	// remote lookup.
	Endpoint string `mapstructure:"endpoint"`

	// Default is the limit used when no override is set and the remote
	// lookup fails or is disabled.
	Default string `mapstructure:"default"`

	// StrictNetworking blocks the remote lookup from resolving to private
	// address space. Leave off for on-premise control planes.
	StrictNetworking bool `mapstructure:"strict_networking"`
}

// APIConfig carries credentials for the control plane
type APIConfig struct {
	// Token authenticates the time-limit lookup. Environment only
	// (WARDEN_API_TOKEN); never read from config files.
	Token string `mapstructure:"token"`
}

// RollbackConfig configures the stable-release safety net
type RollbackConfig struct {
	// Disabled suppresses rollback after a failed run. The supervisor then
	// exits with the failing status. Used to switch the safety net off
	// during development (WARDEN_NO_ROLLBACK).
	Disabled bool `mapstructure:"disabled"`

	// Source is the archive location for the "stable" tag. Anything
	// go-getter understands: https tarball URL, s3/gcs object, local path.
	Source string `mapstructure:"source"`

	// KeepPrevious leaves the replaced program directory on disk as
	// <program_dir>.prev-<timestamp> instead of deleting it.
	KeepPrevious bool `mapstructure:"keep_previous"`
}
