package reconciler

import (
	"time"

	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/errors"
)

// options configures a reconciler.
type options struct {
	classifier *banks.Classifier
	clock      func() time.Time
}

func defaultOptions() *options {
	return &options{
		classifier: banks.Default(),
		clock:      time.Now,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithClassifier sets the classifier used to resolve source labels.
func WithClassifier(c *banks.Classifier) Option {
	return func(o *options) error {
		if c == nil {
			return &errors.ValidationError{
				Field:   "classifier",
				Message: "cannot be nil",
			}
		}
		o.classifier = c
		return nil
	}
}

// WithClock sets the clock used for report timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) error {
		if clock == nil {
			return &errors.ValidationError{
				Field:   "clock",
				Message: "cannot be nil",
			}
		}
		o.clock = clock
		return nil
	}
}
