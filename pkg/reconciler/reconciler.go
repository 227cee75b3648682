// Package reconciler cross-checks a construction budget against one or more
// reference price banks. It compares unit prices within a relative tolerance
// and diffs compositions against their reference bill of materials.
//
// A Reconciler holds only construction-time configuration; every call works
// on its own inputs and returns a fresh report, so one instance can serve
// concurrent jobs. The context is used for logging only.
package reconciler

import (
	"time"

	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/constants"
)

// Reconciler runs price and structure reconciliations.
type Reconciler struct {
	classifier *banks.Classifier
	clock      func() time.Time
}

// New creates a new Reconciler with options.
func New(opts ...Option) (*Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &Reconciler{
		classifier: options.classifier,
		clock:      options.clock,
	}, nil
}

// Classifier returns the classifier used to resolve source labels.
func (r *Reconciler) Classifier() *banks.Classifier {
	return r.classifier
}

// generatedAt stamps a report in local time at second precision.
func (r *Reconciler) generatedAt() string {
	return r.clock().Local().Truncate(time.Second).Format(constants.TimeFormatISO8601)
}

// newPerSource returns a counter map holding every tag at zero.
func newPerSource(tags []banks.Tag) map[string]int {
	m := make(map[string]int, len(tags))
	for _, tag := range tags {
		m[tag.Key()] = 0
	}
	return m
}
