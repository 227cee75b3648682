// Package application defines the interface commands use to reach the
// budgetcheck application.
//
// Commands accept Application rather than the concrete app type so they can
// be tested with internal/cmd/application.Mock:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            runner, err := app.Runner()
//	            if err != nil {
//	                return err
//	            }
//	            outcome, err := runner.RunPrices(cmd.Context(), job)
//	            // ...
//	        },
//	    }
//	}
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/budgetcheck/internal/jobs"
	"github.com/agentstation/budgetcheck/pkg/banks"
)

// Runner executes reconciliation jobs. *jobs.Runner implements it.
type Runner interface {
	RunPrices(ctx context.Context, job jobs.PriceJob) (*jobs.Outcome, error)
	RunStructure(ctx context.Context, job jobs.StructureJob) (*jobs.Outcome, error)
}

// Defaults are the configured job settings that command flags override.
type Defaults struct {
	Tolerance           float64
	CompareDescriptions bool
	OutDir              string
	Exports             []string
}

// Application is what commands need from the application.
//
// All methods must be safe for concurrent use.
type Application interface {
	// Runner returns the job runner, built on first use.
	Runner() (Runner, error)

	// Classifier returns the bank classifier built from configuration.
	Classifier() (*banks.Classifier, error)

	// Defaults returns configured job settings.
	Defaults() Defaults

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
