// Package jobs runs one reconciliation end to end: load the record files,
// reconcile, write the requested artifacts and report what happened.
package jobs

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/constants"
	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/export"
	"github.com/agentstation/budgetcheck/pkg/logging"
	"github.com/agentstation/budgetcheck/pkg/reconciler"
	"github.com/agentstation/budgetcheck/pkg/records"
)

// Kind names the type of a job. It prefixes artifact file names.
type Kind string

// Job kinds.
const (
	KindPrices    Kind = "prices"
	KindStructure Kind = "structure"
)

// Loader reads record files. *loader.Loader implements it.
type Loader interface {
	BudgetItems(ctx context.Context, path string) (records.ItemMap, error)
	ReferenceItems(ctx context.Context, tag banks.Tag, path string) (records.ItemMap, error)
	BudgetCompositions(ctx context.Context, path string) (records.StructureMap, error)
	ReferenceCompositions(ctx context.Context, tag banks.Tag, path string) (records.StructureMap, error)
}

// Engine reconciles loaded records. *reconciler.Reconciler implements it.
type Engine interface {
	Prices(ctx context.Context, budget records.ItemMap, refs map[banks.Tag]records.ItemMap, tolerance float64, compareDescriptions bool) (*reconciler.PriceReport, error)
	Structure(ctx context.Context, budget records.StructureMap, refs map[banks.Tag]records.StructureMap) (*reconciler.StructureReport, error)
}

// Exporter writes a report in one format. The default delegates to pkg/export.
type Exporter interface {
	Prices(path string, format export.Format, report *reconciler.PriceReport) error
	Structure(path string, format export.Format, report *reconciler.StructureReport) error
}

type fileExporter struct{}

func (fileExporter) Prices(path string, format export.Format, report *reconciler.PriceReport) error {
	return export.Prices(path, format, report)
}

func (fileExporter) Structure(path string, format export.Format, report *reconciler.StructureReport) error {
	return export.Structure(path, format, report)
}

// PriceJob describes one price reconciliation.
type PriceJob struct {
	Budget              string
	References          map[banks.Tag]string
	Tolerance           float64
	CompareDescriptions bool
	OutDir              string
	Formats             []export.Format
}

// StructureJob describes one structure reconciliation.
type StructureJob struct {
	Budget     string
	References map[banks.Tag]string
	OutDir     string
	Formats    []export.Format
}

// Outcome is what a finished job reports back.
type Outcome struct {
	ID          string        `json:"id"`
	Kind        Kind          `json:"kind"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  time.Time     `json:"finishedAt"`
	Duration    time.Duration `json:"duration"`
	Artifacts   []string      `json:"artifacts"`
	Divergences int           `json:"divergences"`
	Headline    string        `json:"headline"`

	Prices    *reconciler.PriceReport     `json:"-"`
	Structure *reconciler.StructureReport `json:"-"`
}

// Runner executes jobs. It is safe for concurrent use when its
// collaborators are.
type Runner struct {
	loader   Loader
	engine   Engine
	exporter Exporter
	clock    func() time.Time
	newID    func() string
	logger   *zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithExporter replaces the artifact writer.
func WithExporter(e Exporter) Option {
	return func(r *Runner) {
		if e != nil {
			r.exporter = e
		}
	}
}

// WithClock sets the time source used for timing and artifact names.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithIDGenerator sets how job IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(r *Runner) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// WithLogger sets the logger used when the job context carries none.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(l Loader, e Engine, opts ...Option) (*Runner, error) {
	if l == nil {
		return nil, &errors.ValidationError{Field: "loader", Message: "cannot be nil"}
	}
	if e == nil {
		return nil, &errors.ValidationError{Field: "engine", Message: "cannot be nil"}
	}
	r := &Runner{
		loader:   l,
		engine:   e,
		exporter: fileExporter{},
		clock:    time.Now,
		newID:    uuid.NewString,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunPrices loads the budget and references, reconciles prices and writes
// one artifact per requested format.
func (r *Runner) RunPrices(ctx context.Context, job PriceJob) (*Outcome, error) {
	if len(job.References) == 0 {
		return nil, errors.ErrNoReferences
	}
	ctx, out, err := r.start(ctx, KindPrices)
	if err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx)
	tolerance := ClampTolerance(job.Tolerance)
	if tolerance != job.Tolerance {
		logger.Warn().Float64("requested", job.Tolerance).Float64("tolerance", tolerance).Msg("Tolerance clamped")
	}

	budget, err := r.loader.BudgetItems(logging.WithSource(ctx, job.Budget), job.Budget)
	if err != nil {
		return nil, errors.WrapResource("load", "budget", job.Budget, err)
	}
	refs := make(map[banks.Tag]records.ItemMap, len(job.References))
	for _, tag := range referenceTags(job.References) {
		if err := checkCanceled(ctx); err != nil {
			return nil, err
		}
		path := job.References[tag]
		items, err := r.loader.ReferenceItems(logging.WithSource(ctx, path), tag, path)
		if err != nil {
			return nil, errors.WrapResource("load", "reference "+tag.String(), path, err)
		}
		refs[tag] = items
	}
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	report, err := r.engine.Prices(ctx, budget, refs, tolerance, job.CompareDescriptions)
	if err != nil {
		return nil, err
	}
	out.Prices = report
	out.Divergences = len(report.Divergences)
	out.Headline = report.Headline()

	for _, format := range formatsOrDefault(job.Formats) {
		path := r.artifactPath(job.OutDir, out, format)
		if err := r.exporter.Prices(path, format, report); err != nil {
			return nil, errors.WrapResource("write", "artifact", path, err)
		}
		out.Artifacts = append(out.Artifacts, path)
	}

	r.finish(ctx, out)
	return out, nil
}

// RunStructure loads the budget and references, diffs composition
// structure and writes one artifact per requested format.
func (r *Runner) RunStructure(ctx context.Context, job StructureJob) (*Outcome, error) {
	if len(job.References) == 0 {
		return nil, errors.ErrNoReferences
	}
	ctx, out, err := r.start(ctx, KindStructure)
	if err != nil {
		return nil, err
	}

	budget, err := r.loader.BudgetCompositions(logging.WithSource(ctx, job.Budget), job.Budget)
	if err != nil {
		return nil, errors.WrapResource("load", "budget", job.Budget, err)
	}
	refs := make(map[banks.Tag]records.StructureMap, len(job.References))
	for _, tag := range referenceTags(job.References) {
		if err := checkCanceled(ctx); err != nil {
			return nil, err
		}
		path := job.References[tag]
		comps, err := r.loader.ReferenceCompositions(logging.WithSource(ctx, path), tag, path)
		if err != nil {
			return nil, errors.WrapResource("load", "reference "+tag.String(), path, err)
		}
		refs[tag] = comps
	}
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	report, err := r.engine.Structure(ctx, budget, refs)
	if err != nil {
		return nil, err
	}
	out.Structure = report
	out.Divergences = len(report.Divergences)
	out.Headline = report.Headline()

	for _, format := range formatsOrDefault(job.Formats) {
		path := r.artifactPath(job.OutDir, out, format)
		if err := r.exporter.Structure(path, format, report); err != nil {
			return nil, errors.WrapResource("write", "artifact", path, err)
		}
		out.Artifacts = append(out.Artifacts, path)
	}

	r.finish(ctx, out)
	return out, nil
}

// start checks for cancellation, mints the job ID and tags the context.
func (r *Runner) start(ctx context.Context, kind Kind) (context.Context, *Outcome, error) {
	if err := checkCanceled(ctx); err != nil {
		return ctx, nil, err
	}
	if logging.FromContext(ctx) == logging.Default() {
		ctx = logging.WithLogger(ctx, r.logger)
	}
	out := &Outcome{
		ID:        r.newID(),
		Kind:      kind,
		StartedAt: r.clock(),
		Artifacts: []string{},
	}
	ctx = logging.WithKind(logging.WithJob(ctx, out.ID), string(kind))
	logging.FromContext(ctx).Info().Msg("Job started")
	return ctx, out, nil
}

func (r *Runner) finish(ctx context.Context, out *Outcome) {
	out.FinishedAt = r.clock()
	out.Duration = out.FinishedAt.Sub(out.StartedAt)
	logging.FromContext(ctx).Info().
		Dur("duration", out.Duration).
		Int("divergences", out.Divergences).
		Strs("artifacts", out.Artifacts).
		Msg("Job finished")
}

// artifactPath builds <kind>_<id prefix>_<UTC timestamp>.<ext> under dir.
func (r *Runner) artifactPath(dir string, out *Outcome, format export.Format) string {
	if dir == "" {
		dir = constants.DefaultOutDir
	}
	id := out.ID
	if len(id) > constants.JobIDPrefixLength {
		id = id[:constants.JobIDPrefixLength]
	}
	name := fmt.Sprintf("%s_%s_%s.%s", out.Kind, id,
		out.StartedAt.UTC().Format(constants.TimeFormatFilename), format.Ext())
	return filepath.Join(dir, name)
}

// ClampTolerance bounds a requested tolerance to [MinTolerance, MaxTolerance].
// NaN becomes MinTolerance.
func ClampTolerance(t float64) float64 {
	if math.IsNaN(t) {
		return constants.MinTolerance
	}
	return max(constants.MinTolerance, min(t, constants.MaxTolerance))
}

func checkCanceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	}
	return nil
}

func referenceTags(refs map[banks.Tag]string) []banks.Tag {
	tags := make([]banks.Tag, 0, len(refs))
	for tag := range refs {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

func formatsOrDefault(formats []export.Format) []export.Format {
	if len(formats) == 0 {
		return []export.Format{export.FormatJSON}
	}
	return formats
}
