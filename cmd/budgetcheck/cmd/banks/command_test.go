package banks_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bankscmd "github.com/agentstation/budgetcheck/cmd/budgetcheck/cmd/banks"
	mockapp "github.com/agentstation/budgetcheck/internal/cmd/application"
	"github.com/agentstation/budgetcheck/pkg/banks"
)

func TestListsConfiguredRules(t *testing.T) {
	classifier, err := banks.NewClassifier(
		banks.Rule{Tag: "CPOS", Match: []string{"cpos", "cdhu"}},
		banks.Rule{Tag: banks.SINAPI, Match: []string{"sinapi"}},
	)
	require.NoError(t, err)

	cmd := bankscmd.NewCommand(&mockapp.Mock{
		ClassifierFunc: func() (*banks.Classifier, error) { return classifier, nil },
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var rules []banks.Rule
	require.NoError(t, json.Unmarshal(out.Bytes(), &rules))
	require.Len(t, rules, 2)
	assert.Equal(t, banks.Tag("CPOS"), rules[0].Tag)
	assert.Equal(t, []string{"cpos", "cdhu"}, rules[0].Match)
}
