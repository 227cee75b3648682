// Package logging holds the process-wide zerolog logger for budgetcheck and
// the helpers that carry a per-job logger through a context.
//
// The default logger follows the LOG_* environment variables until the CLI
// replaces it with one that also honours flags and the config file:
//
//	logging.ConfigureFromEnv()
//	ctx := logging.WithJob(context.Background(), jobID)
//	logging.FromContext(ctx).Info().Str("bank", "SINAPI").Msg("Reference loaded")
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = NewLoggerFromConfig(FromEnv())

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
