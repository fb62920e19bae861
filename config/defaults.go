package config

import (
	"github.com/spf13/viper"
)

// Default values used when neither config file nor environment provides one.
const (
	// DefaultTimeLimit bounds a run when no override is set and the remote
	// lookup is unavailable.
	DefaultTimeLimit = "12h"

	// DefaultDiagnosticFlag is appended to argv for the diagnostic re-run.
	DefaultDiagnosticFlag = "-f"

	// DefaultDirPermissions for the warden config directory
	DefaultDirPermissions = 0o755
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("run.program_dir", ".")
	v.SetDefault("run.diagnostic_flag", DefaultDiagnosticFlag)

	v.SetDefault("timelimit.override", "")
	v.SetDefault("timelimit.endpoint", "")
	v.SetDefault("timelimit.default", DefaultTimeLimit)
	v.SetDefault("timelimit.strict_networking", false)

	v.SetDefault("rollback.disabled", false)
	v.SetDefault("rollback.source", "")
	v.SetDefault("rollback.keep_previous", false)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	// The API token never lives in a config file
	v.BindEnv("api.token", "WARDEN_API_TOKEN")

	// Operational toggles commonly set per-run in the deployment environment
	v.BindEnv("timelimit.override", "WARDEN_TIME_LIMIT")
	v.BindEnv("rollback.disabled", "WARDEN_NO_ROLLBACK")
}
