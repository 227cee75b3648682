// Package app provides the application context and dependency management
// for the budgetcheck CLI. It centralizes configuration, logging and the
// construction of the job runner.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/budgetcheck/cmd/application"
	"github.com/agentstation/budgetcheck/internal/jobs"
	"github.com/agentstation/budgetcheck/internal/loader"
	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/logging"
	"github.com/agentstation/budgetcheck/pkg/reconciler"
)

// App represents the budgetcheck application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazily built from config, then shared.
	mu         sync.RWMutex
	classifier *banks.Classifier
	runner     application.Runner
}

var _ application.Application = (*App)(nil)

// New creates a new App with the given version information and the
// configuration found in the default locations.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	// .env files are loaded now, so LOG_* from them reach early logging.
	logging.ConfigureFromEnv()
	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Defaults returns the configured job settings.
func (a *App) Defaults() application.Defaults {
	return application.Defaults{
		Tolerance:           a.config.Tolerance,
		CompareDescriptions: a.config.CompareDescriptions,
		OutDir:              a.config.OutDir,
		Exports:             a.config.Exports,
	}
}

// Classifier returns the bank classifier built from the configured rules.
func (a *App) Classifier() (*banks.Classifier, error) {
	a.mu.RLock()
	if a.classifier != nil {
		c := a.classifier
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.classifierLocked()
}

func (a *App) classifierLocked() (*banks.Classifier, error) {
	if a.classifier != nil {
		return a.classifier, nil
	}
	c, err := banks.NewClassifier(a.config.Banks...)
	if err != nil {
		return nil, errors.NewConfigError("banks", "invalid bank rules", err)
	}
	a.classifier = c
	return c, nil
}

// Runner returns the job runner, creating it on first use.
func (a *App) Runner() (application.Runner, error) {
	a.mu.RLock()
	if a.runner != nil {
		r := a.runner
		a.mu.RUnlock()
		return r, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.runner != nil {
		return a.runner, nil
	}

	classifier, err := a.classifierLocked()
	if err != nil {
		return nil, err
	}
	engine, err := reconciler.New(reconciler.WithClassifier(classifier))
	if err != nil {
		return nil, errors.WrapResource("create", "reconciler", "", err)
	}
	runner, err := jobs.NewRunner(loader.New(nil), engine, jobs.WithLogger(a.logger))
	if err != nil {
		return nil, errors.WrapResource("create", "runner", "", err)
	}

	a.runner = runner
	return runner, nil
}

// Shutdown releases application resources. Jobs hold none between runs,
// so there is nothing to stop yet.
func (a *App) Shutdown(_ context.Context) error {
	a.logger.Debug().Msg("Shutting down")
	return nil
}

// reloadConfig replaces the configuration with the one read from path and
// drops everything built from the old one.
func (a *App) reloadConfig(path string) error {
	config, err := LoadConfig(path)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = config
	a.classifier = nil
	a.runner = nil
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithRunner sets a custom job runner (useful for testing).
func WithRunner(r application.Runner) Option {
	return func(a *App) error {
		a.runner = r
		return nil
	}
}
