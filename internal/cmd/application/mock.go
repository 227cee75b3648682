// Package application provides test doubles for cmd/application.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/budgetcheck/cmd/application"
	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/constants"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    RunnerFunc: func() (application.Runner, error) {
//	        return runner, nil
//	    },
//	}
//	cmd := prices.NewCommand(mock)
type Mock struct {
	RunnerFunc       func() (application.Runner, error)
	ClassifierFunc   func() (*banks.Classifier, error)
	DefaultsFunc     func() application.Defaults
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
}

var _ application.Application = (*Mock)(nil)

// Runner returns a runner using the mock function or nil.
func (m *Mock) Runner() (application.Runner, error) {
	if m.RunnerFunc != nil {
		return m.RunnerFunc()
	}
	return nil, nil
}

// Classifier returns the mock classifier or the default one.
func (m *Mock) Classifier() (*banks.Classifier, error) {
	if m.ClassifierFunc != nil {
		return m.ClassifierFunc()
	}
	return banks.Default(), nil
}

// Defaults returns the mock defaults or the built-in ones.
func (m *Mock) Defaults() application.Defaults {
	if m.DefaultsFunc != nil {
		return m.DefaultsFunc()
	}
	return application.Defaults{
		Tolerance:           constants.DefaultTolerance,
		CompareDescriptions: constants.DefaultCompareDescriptions,
		OutDir:              constants.DefaultOutDir,
		Exports:             []string{"json"},
	}
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns "dev".
func (m *Mock) Version() string { return "dev" }

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }
