package files_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/budgetcheck/cmd/budgetcheck/cmd/files"
	mockapp "github.com/agentstation/budgetcheck/internal/cmd/application"
	"github.com/agentstation/budgetcheck/internal/jobs"
)

func TestListsArtifacts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prices_01234567_20250101000000.json"), []byte("{}"), 0o644))

	cmd := files.NewCommand(&mockapp.Mock{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--out-dir", dir})
	require.NoError(t, cmd.Execute())

	var artifacts []jobs.Artifact
	require.NoError(t, json.Unmarshal(out.Bytes(), &artifacts))
	require.Len(t, artifacts, 1)
	assert.Equal(t, "prices_01234567_20250101000000.json", artifacts[0].Name)
	assert.Equal(t, "2 B", artifacts[0].HumanSize)
}

func TestTableOutput(t *testing.T) {
	cmd := files.NewCommand(&mockapp.Mock{OutputFormatFunc: func() string { return "table" }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--out-dir", filepath.Join(t.TempDir(), "none")})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, strings.ToUpper(out.String()), "NAME")
}
