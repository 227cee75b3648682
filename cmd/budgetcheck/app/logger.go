package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/budgetcheck/pkg/logging"
)

// NewLogger creates a configured logger based on the application configuration.
// The LOG_* environment variables are the baseline and the config layers
// on top of them. Log level precedence (highest to lowest):
//  1. --log-level flag, BUDGETCHECK_LOG_LEVEL or log_level in the config file
//  2. -v/--verbose flag (shortcut for debug)
//  3. -q/--quiet flag (shortcut for warn)
//  4. LOG_LEVEL environment variable
//  5. Default (info)
func NewLogger(config *Config) zerolog.Logger {
	logConfig := logging.FromEnv()
	logConfig.Level = determineLogLevel(config, logConfig.Level)
	if config.LogFormat != "" {
		logConfig.Format = config.LogFormat
	}
	if config.LogOutput != "" {
		logConfig.Output = config.LogOutput
	}
	logConfig.NoColor = logConfig.NoColor || config.NoColor

	return logging.NewLoggerFromConfig(logConfig)
}

// determineLogLevel applies the precedence rules of NewLogger. envLevel is
// the LOG_LEVEL value.
func determineLogLevel(config *Config, envLevel string) string {
	if config.LogLevel != "" {
		return validateLogLevel(config.LogLevel)
	}

	if config.Verbose && config.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	}
	if config.Verbose {
		return "debug"
	}
	if config.Quiet {
		return "warn"
	}

	if envLevel != "" {
		return validateLogLevel(envLevel)
	}
	return "info"
}

// validateLogLevel returns level when zerolog knows it, "info" otherwise.
func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	}
	fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", level, "info")
	return "info"
}
