package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/budgetcheck/internal/loader"
	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testContext(t *testing.T) (context.Context, *logging.TestLogger) {
	t.Helper()
	tl := logging.NewTestLogger(t)
	return logging.WithLogger(context.Background(), tl.Logger), tl
}

func TestBudgetItems(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "budget.yaml", `
items:
  - code: "87.529"
    description: "  Reboco  "
    unit_value: "1.234,56"
    unit: m2
    source: SINAPI 03/2024
  - code: 87.529
    description: Reboco repetido
    unit_value: 10
  - code: 123
    description: Numeric code
    unit_value: "(12,50)"
  - code: ""
    description: no code
  - code: "X1"
    unit_value: "n/a"
`)
	ctx, tl := testContext(t)

	items, err := loader.New(nil).BudgetItems(ctx, path)
	require.NoError(t, err)
	require.Len(t, items, 4)

	first := items["87.529"]
	assert.Equal(t, "87.529", first.Code)
	assert.Equal(t, "Reboco", first.Description)
	require.NotNil(t, first.UnitValue)
	assert.InDelta(t, 1234.56, *first.UnitValue, 1e-9)
	require.NotNil(t, first.SourceTag)
	assert.Equal(t, "SINAPI 03/2024", *first.SourceTag)
	assert.Equal(t, loader.OriginBudget, first.Origin)

	second, ok := items["87.529__occ1"]
	require.True(t, ok, "repeated codes are decorated")
	assert.Equal(t, "87.529__occ1", second.Code)
	assert.InDelta(t, 10.0, *second.UnitValue, 1e-9)

	numeric, ok := items["123"]
	require.True(t, ok, "unquoted YAML integers become decimal strings")
	assert.InDelta(t, -12.5, *numeric.UnitValue, 1e-9)

	assert.Nil(t, items["X1"].UnitValue, "unparsable values load as null")
	tl.AssertNotContains(t, "key already taken")
}

func TestBudgetItemsKeepLiteralOccurrenceRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "budget.yaml", `
items:
  - {code: "X__occ1", description: Literal, unit_value: 1}
  - {code: "X", description: First, unit_value: 2}
  - {code: "X", description: Second, unit_value: 3}
`)
	ctx, tl := testContext(t)

	items, err := loader.New(nil).BudgetItems(ctx, path)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Literal", items["X__occ1"].Description)
	assert.Equal(t, "First", items["X"].Description)
	assert.Equal(t, "Second", items["X__occ2"].Description)
	assert.Equal(t, "X__occ2", items["X__occ2"].Code)
	tl.AssertContains(t, "Budget row key already taken")
}

func TestReferenceItems(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sinapi.json", `{
  "items": [
    {"code": "0087529", "description": "Reboco", "unit_value": 100},
    {"code": "87529", "description": "Duplicate", "unit_value": 1},
    {"code": "88.1", "description": "Own label", "unit_value": "5", "source": "SINAPI-MG"}
  ]
}`)
	ctx, tl := testContext(t)

	items, err := loader.New(nil).ReferenceItems(ctx, banks.SINAPI, path)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items["87529"]
	assert.Equal(t, "0087529", first.Code, "the raw code is kept on the item")
	assert.Equal(t, "Reboco", first.Description)
	require.NotNil(t, first.SourceTag)
	assert.Equal(t, "SINAPI", *first.SourceTag)
	assert.Equal(t, "SINAPI", first.Origin)

	assert.Equal(t, "SINAPI-MG", *items["88.1"].SourceTag)
	tl.AssertContains(t, "Duplicate reference code")
}

func TestCompositions(t *testing.T) {
	dir := t.TempDir()
	budgetPath := writeFile(t, dir, "budget.yml", `
compositions:
  - code: 10
    description: Parede
    source: SUDECAP
    children:
      - {code: 1, description: Bloco, coefficient: "12,5"}
      - {code: "2", description: Argamassa}
  - code: 10
    description: Parede de novo
`)
	refPath := writeFile(t, dir, "sudecap.yaml", `
compositions:
  - code: "010"
    description: Parede
    children:
      - {code: "01", description: Bloco}
  - code: "10"
    description: Duplicate
`)
	ctx, _ := testContext(t)
	l := loader.New(nil)

	budget, err := l.BudgetCompositions(ctx, budgetPath)
	require.NoError(t, err)
	require.Len(t, budget, 2)
	parent := budget["10"]
	require.Len(t, parent.Children, 2)
	assert.Equal(t, "1", parent.Children[0].Code)
	require.NotNil(t, parent.Children[0].Coefficient)
	assert.InDelta(t, 12.5, *parent.Children[0].Coefficient, 1e-9)
	assert.Nil(t, parent.Children[1].Coefficient)
	assert.Contains(t, budget, "10__occ1")

	refs, err := l.ReferenceCompositions(ctx, banks.SUDECAP, refPath)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Parede", refs["10"].Description)
	assert.Equal(t, "SUDECAP", *refs["10"].SourceTag)
}

func TestLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	ctx, _ := testContext(t)
	l := loader.New(loader.FilesystemReader{BasePath: dir})

	t.Run("missing file", func(t *testing.T) {
		_, err := l.BudgetItems(ctx, "missing.yaml")
		var nf *errors.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "missing.yaml", nf.ID)
		assert.True(t, errors.IsNotFound(err))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unreadable file", func(t *testing.T) {
		require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.yaml"), 0o755))
		_, err := l.BudgetItems(ctx, "folder.yaml")
		var ioErr *errors.IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "read", ioErr.Operation)
		assert.False(t, errors.IsNotFound(err))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		writeFile(t, dir, "budget.xlsx", "binary")
		_, err := l.BudgetItems(ctx, "budget.xlsx")
		var parseErr *errors.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)
	})

	t.Run("malformed document", func(t *testing.T) {
		writeFile(t, dir, "broken.yaml", "items: [\n  - code: {")
		_, err := l.ReferenceItems(ctx, banks.SECID, "broken.yaml")
		var parseErr *errors.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "yaml", parseErr.Format)
	})

	t.Run("empty file", func(t *testing.T) {
		writeFile(t, dir, "empty.json", "  \n")
		items, err := l.BudgetItems(ctx, "empty.json")
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
