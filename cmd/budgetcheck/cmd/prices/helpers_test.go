package prices_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/budgetcheck/internal/loader"
	"github.com/agentstation/budgetcheck/pkg/reconciler"
)

func loaderForTest() *loader.Loader {
	return loader.New(nil)
}

func engineForTest(t *testing.T) *reconciler.Reconciler {
	t.Helper()
	r, err := reconciler.New()
	require.NoError(t, err)
	return r
}
