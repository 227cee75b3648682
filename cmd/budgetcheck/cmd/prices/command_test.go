package prices_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/budgetcheck/cmd/application"
	"github.com/agentstation/budgetcheck/cmd/budgetcheck/cmd/prices"
	mockapp "github.com/agentstation/budgetcheck/internal/cmd/application"
	"github.com/agentstation/budgetcheck/internal/jobs"
	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/export"
	"github.com/agentstation/budgetcheck/pkg/reconciler"
)

// recordingRunner captures the job it receives.
type recordingRunner struct {
	job jobs.PriceJob
}

func (r *recordingRunner) RunPrices(_ context.Context, job jobs.PriceJob) (*jobs.Outcome, error) {
	r.job = job
	return &jobs.Outcome{ID: "job", Kind: jobs.KindPrices, Artifacts: []string{"out/prices.json"}, Prices: &reconciler.PriceReport{}}, nil
}

func (r *recordingRunner) RunStructure(context.Context, jobs.StructureJob) (*jobs.Outcome, error) {
	panic("not used")
}

func execute(t *testing.T, app application.Application, args ...string) (string, error) {
	t.Helper()
	cmd := prices.NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFlagsOverrideDefaults(t *testing.T) {
	runner := &recordingRunner{}
	app := &mockapp.Mock{
		RunnerFunc: func() (application.Runner, error) { return runner, nil },
		DefaultsFunc: func() application.Defaults {
			return application.Defaults{Tolerance: 0.05, CompareDescriptions: true, OutDir: "output", Exports: []string{"yaml"}}
		},
	}

	out, err := execute(t, app, "-b", "budget.yaml", "-r", "sinapi=s.yaml", "--tolerance", "0.1", "--no-compare-desc")
	require.NoError(t, err)
	assert.Contains(t, out, "out/prices.json")

	assert.Equal(t, "budget.yaml", runner.job.Budget)
	assert.Equal(t, map[banks.Tag]string{banks.SINAPI: "s.yaml"}, runner.job.References)
	assert.Equal(t, 0.1, runner.job.Tolerance)
	assert.False(t, runner.job.CompareDescriptions)
	assert.Equal(t, "output", runner.job.OutDir)
	assert.Equal(t, []export.Format{export.FormatYAML}, runner.job.Formats)
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	budget := write("budget.yaml", `
items:
  - {code: "1", description: Tubo, unit_value: "105,00", source: "SINAPI 01/2025"}
  - {code: "2", description: Cimento, unit_value: 50, source: SINAPI}
`)
	ref := write("sinapi.yaml", `
items:
  - {code: "1", description: Tubo, unit_value: 100}
`)
	runner, err := jobs.NewRunner(loaderForTest(), engineForTest(t))
	require.NoError(t, err)
	app := &mockapp.Mock{
		RunnerFunc: func() (application.Runner, error) { return runner, nil },
	}

	out, err := execute(t, app, "-b", budget, "-r", "SINAPI="+ref, "--out-dir", dir)
	require.NoError(t, err)

	var outcome struct {
		Kind        string   `json:"kind"`
		Divergences int      `json:"divergences"`
		Headline    string   `json:"headline"`
		Artifacts   []string `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, "prices", outcome.Kind)
	assert.Equal(t, 1, outcome.Divergences)
	assert.Equal(t, "2 items, 2 compared, 0 ignored, 1 divergences", outcome.Headline)
	require.Len(t, outcome.Artifacts, 1)
	assert.FileExists(t, outcome.Artifacts[0])
}

func TestInvalidReference(t *testing.T) {
	app := &mockapp.Mock{}
	_, err := execute(t, app, "-b", "budget.yaml", "-r", "sinapi.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TAG=FILE")
}

func TestRequiredFlags(t *testing.T) {
	_, err := execute(t, &mockapp.Mock{}, "-r", "SINAPI=s.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget")
}
