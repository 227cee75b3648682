package jobs_test

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/budgetcheck/internal/jobs"
	"github.com/agentstation/budgetcheck/internal/loader"
	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/export"
	"github.com/agentstation/budgetcheck/pkg/logging"
	"github.com/agentstation/budgetcheck/pkg/reconciler"
	"github.com/agentstation/budgetcheck/pkg/records"
)

var started = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

const budgetItems = `
items:
  - {code: "1", description: Tubo, unit_value: 105, source: SINAPI}
  - {code: "2", description: Cimento, unit_value: 50, source: SUDECAP}
  - {code: "3", description: Areia, unit_value: 1, source: CPOS}
`

const sinapiItems = `
items:
  - {code: "001", description: Tubo, unit_value: 100}
`

const sudecapItems = `
items:
  - {code: "2", description: Cimento, unit_value: 40}
`

func newRunner(t *testing.T, opts ...jobs.Option) (*jobs.Runner, *logging.TestLogger) {
	t.Helper()
	engine, err := reconciler.New(reconciler.WithClock(func() time.Time { return started }))
	require.NoError(t, err)

	tl := logging.NewTestLogger(t)
	base := []jobs.Option{
		jobs.WithClock(func() time.Time { return started }),
		jobs.WithIDGenerator(func() string { return "0123456789abcdef" }),
		jobs.WithLogger(tl.Logger),
	}
	r, err := jobs.NewRunner(loader.New(nil), engine, append(base, opts...)...)
	require.NoError(t, err)
	return r, tl
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunPrices(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	job := jobs.PriceJob{
		Budget: write(t, dir, "budget.yaml", budgetItems),
		References: map[banks.Tag]string{
			banks.SINAPI:  write(t, dir, "sinapi.yaml", sinapiItems),
			banks.SUDECAP: write(t, dir, "sudecap.yaml", sudecapItems),
		},
		Tolerance:           0.05,
		CompareDescriptions: true,
		OutDir:              outDir,
		Formats:             []export.Format{export.FormatJSON, export.FormatXLSX},
	}
	r, tl := newRunner(t)

	out, err := r.RunPrices(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, "0123456789abcdef", out.ID)
	assert.Equal(t, jobs.KindPrices, out.Kind)
	assert.Equal(t, 1, out.Divergences)
	assert.Equal(t, "3 items, 2 compared, 1 ignored, 1 divergences", out.Headline)
	assert.Equal(t, []string{
		filepath.Join(outDir, "prices_01234567_20250304050607.json"),
		filepath.Join(outDir, "prices_01234567_20250304050607.xlsx"),
	}, out.Artifacts)
	require.NotNil(t, out.Prices)
	assert.Nil(t, out.Structure)

	data, err := os.ReadFile(out.Artifacts[0])
	require.NoError(t, err)
	var decoded struct {
		Divergences []reconciler.PriceDivergence `json:"divergences"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Divergences, 1)
	assert.Equal(t, banks.SUDECAP, decoded.Divergences[0].Ref)
	assert.Equal(t, "2", decoded.Divergences[0].Code)

	tl.AssertContains(t, `"job_id":"0123456789abcdef"`)
	tl.AssertContains(t, `"kind":"prices"`)
	tl.AssertContains(t, "Job finished")
}

func TestRunPricesClampsTolerance(t *testing.T) {
	dir := t.TempDir()
	job := jobs.PriceJob{
		Budget:     write(t, dir, "budget.yaml", budgetItems),
		References: map[banks.Tag]string{banks.SUDECAP: write(t, dir, "sudecap.yaml", sudecapItems)},
		Tolerance:  7,
		OutDir:     dir,
	}
	r, tl := newRunner(t)

	out, err := r.RunPrices(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Prices.Meta.Tolerance)
	assert.Zero(t, out.Divergences, "a 25% gap fits a 100% tolerance")
	tl.AssertContains(t, "Tolerance clamped")
}

func TestClampTolerance(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.05, 0.05},
		{-1, 0},
		{2, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, jobs.ClampTolerance(tt.in), "ClampTolerance(%v)", tt.in)
	}
}

func TestRunStructure(t *testing.T) {
	dir := t.TempDir()
	budget := write(t, dir, "budget.yaml", `
compositions:
  - code: "10"
    description: Parede
    source: SECID
    children:
      - {code: "1", description: Bloco}
      - {code: "2", description: Argamassa}
`)
	ref := write(t, dir, "secid.yaml", `
compositions:
  - code: "20"
    description: Piso
    children: []
`)
	r, _ := newRunner(t)

	out, err := r.RunStructure(context.Background(), jobs.StructureJob{
		Budget:     budget,
		References: map[banks.Tag]string{banks.SECID: ref},
		OutDir:     dir,
		Formats:    []export.Format{export.FormatMarkdown},
	})
	require.NoError(t, err)
	assert.Equal(t, jobs.KindStructure, out.Kind)
	assert.Equal(t, 1, out.Divergences)
	require.Len(t, out.Artifacts, 1)
	assert.Equal(t, "structure_01234567_20250304050607.md", filepath.Base(out.Artifacts[0]))
	assert.Equal(t, []string{"1", "2"}, out.Structure.Divergences[0].Missing)
	assert.FileExists(t, out.Artifacts[0])
}

func TestRunnerErrors(t *testing.T) {
	dir := t.TempDir()
	budget := write(t, dir, "budget.yaml", budgetItems)

	t.Run("no references", func(t *testing.T) {
		r, _ := newRunner(t)
		_, err := r.RunPrices(context.Background(), jobs.PriceJob{Budget: budget})
		assert.ErrorIs(t, err, errors.ErrNoReferences)
		_, err = r.RunStructure(context.Background(), jobs.StructureJob{Budget: budget})
		assert.ErrorIs(t, err, errors.ErrNoReferences)
	})

	t.Run("canceled", func(t *testing.T) {
		r, _ := newRunner(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.RunPrices(ctx, jobs.PriceJob{
			Budget:     budget,
			References: map[banks.Tag]string{banks.SINAPI: budget},
			OutDir:     dir,
		})
		assert.True(t, errors.IsCanceled(err))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing reference", func(t *testing.T) {
		r, _ := newRunner(t)
		_, err := r.RunPrices(context.Background(), jobs.PriceJob{
			Budget:     budget,
			References: map[banks.Tag]string{banks.SINAPI: filepath.Join(dir, "nope.yaml")},
			OutDir:     dir,
		})
		var resErr *errors.ResourceError
		require.ErrorAs(t, err, &resErr)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("export failure", func(t *testing.T) {
		r, _ := newRunner(t, jobs.WithExporter(failingExporter{}))
		_, err := r.RunPrices(context.Background(), jobs.PriceJob{
			Budget:     budget,
			References: map[banks.Tag]string{banks.SINAPI: write(t, dir, "sinapi.yaml", sinapiItems)},
			OutDir:     dir,
		})
		assert.ErrorIs(t, err, os.ErrPermission)
	})

	t.Run("nil collaborators", func(t *testing.T) {
		_, err := jobs.NewRunner(nil, stubEngine{})
		assert.True(t, errors.IsValidationError(err))
		_, err = jobs.NewRunner(loader.New(nil), nil)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestListArtifacts(t *testing.T) {
	dir := t.TempDir()
	older := write(t, dir, "prices_aaaaaaaa_20250101000000.json", "{}")
	newer := write(t, dir, "structure_bbbbbbbb_20250102000000.xlsx", "0123456789")
	write(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(newer, now, now))

	artifacts, err := jobs.ListArtifacts(dir)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, filepath.Base(newer), artifacts[0].Name)
	assert.Equal(t, int64(10), artifacts[0].Size)
	assert.Equal(t, "10 B", artifacts[0].HumanSize)
	assert.Equal(t, filepath.Base(older), artifacts[1].Name)

	missing, err := jobs.ListArtifacts(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", jobs.FormatBytes(512))
	assert.Equal(t, "1.5 KB", jobs.FormatBytes(1536))
	assert.Equal(t, "2.0 MB", jobs.FormatBytes(2*1024*1024))
}

type failingExporter struct{}

func (failingExporter) Prices(string, export.Format, *reconciler.PriceReport) error {
	return os.ErrPermission
}

func (failingExporter) Structure(string, export.Format, *reconciler.StructureReport) error {
	return os.ErrPermission
}

type stubEngine struct{}

func (stubEngine) Prices(context.Context, records.ItemMap, map[banks.Tag]records.ItemMap, float64, bool) (*reconciler.PriceReport, error) {
	return &reconciler.PriceReport{}, nil
}

func (stubEngine) Structure(context.Context, records.StructureMap, map[banks.Tag]records.StructureMap) (*reconciler.StructureReport, error) {
	return &reconciler.StructureReport{}, nil
}
