package records_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/budgetcheck/pkg/records"
)

func TestCodeOr(t *testing.T) {
	assert.Equal(t, "92793", records.Item{Code: "92793"}.CodeOr("row-1"))
	assert.Equal(t, "row-1", records.Item{Code: "  "}.CodeOr("row-1"))
	assert.Equal(t, "C-01", records.Composition{}.CodeOr("C-01"))
	assert.Equal(t, "88", records.Composition{Code: "88"}.CodeOr("C-01"))
}

func TestPtr(t *testing.T) {
	p := records.Ptr(1.5)
	assert.Equal(t, 1.5, *p)
	s := records.Ptr("m2")
	assert.Equal(t, "m2", *s)
}
