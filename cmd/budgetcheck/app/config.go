package app

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/constants"
	"github.com/agentstation/budgetcheck/pkg/errors"
)

// EnvPrefix prefixes every environment variable budgetcheck reads through
// viper, e.g. BUDGETCHECK_TOLERANCE.
const EnvPrefix = "BUDGETCHECK"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// ConfigFile is the file actually read, if any.
	ConfigFile string

	// Job defaults
	Tolerance           float64
	CompareDescriptions bool
	OutDir              string
	Exports             []string

	// Banks are the classifier rules. Empty means the built-in rules.
	Banks []banks.Rule

	// Logging overrides from a flag, BUDGETCHECK_LOG_* or the config file.
	// Empty fields fall back to the LOG_* variables.
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. Environment variables (BUDGETCHECK_*)
//  3. .env and .env.local
//  4. Config file (configFile, or .budgetcheck.yaml in $HOME or the working directory)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("tolerance", constants.DefaultTolerance)
	v.SetDefault("compare_descriptions", constants.DefaultCompareDescriptions)
	v.SetDefault("out_dir", constants.DefaultOutDir)
	v.SetDefault("exports", []string{"json"})

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.ConfigFileName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config file", err.Error(), err)
		}
	}

	config := &Config{
		Verbose:             v.GetBool("verbose"),
		Quiet:               v.GetBool("quiet"),
		NoColor:             v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Format:              v.GetString("format"),
		ConfigFile:          v.ConfigFileUsed(),
		Tolerance:           v.GetFloat64("tolerance"),
		CompareDescriptions: v.GetBool("compare_descriptions"),
		OutDir:              v.GetString("out_dir"),
		Exports:             v.GetStringSlice("exports"),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           v.GetString("log_format"),
		LogOutput:           v.GetString("log_output"),
	}

	if err := v.UnmarshalKey("banks", &config.Banks); err != nil {
		return nil, errors.NewConfigError("banks", "cannot decode bank rules", err)
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags so flag values take
// precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files. godotenv never
// overrides a variable that is already set, so .env.local is loaded first.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
