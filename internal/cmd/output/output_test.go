package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/budgetcheck/internal/cmd/output"
	"github.com/agentstation/budgetcheck/pkg/banks"
)

func TestTableFormatter(t *testing.T) {
	table := output.Rules(banks.DefaultRules())

	var buf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatTable).Format(&buf, table))
	out := buf.String()
	assert.Contains(t, out, "SINAPI")
	assert.Contains(t, out, "SUDECAP")
	assert.Contains(t, out, "sinapi")
	assert.Contains(t, strings.ToUpper(out), "MATCH PATTERNS")
}

func TestStructuredFormattersUseSource(t *testing.T) {
	table := output.Rules(banks.DefaultRules())

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.NewFormatter(output.FormatJSON).Format(&buf, table))
		var rules []banks.Rule
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rules))
		assert.Equal(t, banks.DefaultRules(), rules)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.NewFormatter(output.FormatYAML).Format(&buf, table))
		var rules []banks.Rule
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rules))
		assert.Equal(t, banks.DefaultRules(), rules)
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    output.Format
		wantErr bool
	}{
		{"table", output.FormatTable, false},
		{"JSON", output.FormatJSON, false},
		{"yaml", output.FormatYAML, false},
		{"", "", false},
		{"wide", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := output.ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderCase(t *testing.T) {
	assert.Equal(t, "Match Patterns", output.HeaderCase("match_patterns"))
	assert.Equal(t, "Mod Time", output.HeaderCase("modTime"))
	assert.Equal(t, "Tag", output.HeaderCase("tag"))
}
