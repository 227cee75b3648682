package errors_test

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/budgetcheck/pkg/errors"
)

func TestWrapRead(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		err := pkgerrors.WrapRead("record file", "sinapi.yaml", os.ErrNotExist)
		assert.Equal(t, "record file sinapi.yaml not found", err.Error())
		assert.True(t, pkgerrors.IsNotFound(err))
		assert.ErrorIs(t, err, fs.ErrNotExist)

		var nf *pkgerrors.NotFoundError
		require.ErrorAs(t, errors.Join(errors.New("load"), err), &nf)
		assert.Equal(t, "sinapi.yaml", nf.ID)
	})

	t.Run("other failure", func(t *testing.T) {
		err := pkgerrors.WrapRead("record file", "/budget.yaml", fs.ErrPermission)
		assert.Equal(t, "IO error during read of /budget.yaml: permission denied", err.Error())
		assert.False(t, pkgerrors.IsNotFound(err))

		var ioErr *pkgerrors.IOError
		require.ErrorAs(t, err, &ioErr)
		assert.ErrorIs(t, err, fs.ErrPermission)
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapRead("record file", "x", nil))
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"with field", pkgerrors.NewValidationError("tolerance", -0.1, "must not be negative"),
			"validation failed for field tolerance: must not be negative"},
		{"without field", &pkgerrors.ValidationError{Message: "empty reference tag"},
			"validation failed: empty reference tag"},
		{"wrapped", pkgerrors.WrapValidation("export", errors.New("unknown format \"pdf\"")),
			"validation failed for field export: unknown format \"pdf\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, pkgerrors.IsValidationError(tt.err))
			assert.ErrorIs(t, tt.err, pkgerrors.ErrInvalidInput)
		})
	}
	assert.NoError(t, pkgerrors.WrapValidation("x", nil))
}

func TestParseError(t *testing.T) {
	base := errors.New("unexpected key")
	err := pkgerrors.WrapParse("yaml", "budget.yaml", base)
	assert.Equal(t, "parse error in yaml file budget.yaml: unexpected key", err.Error())
	assert.ErrorIs(t, err, base)

	var pe *pkgerrors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "budget.yaml", pe.File)

	noFile := &pkgerrors.ParseError{Format: "json", Message: "bad"}
	assert.Equal(t, "json parse error: bad", noFile.Error())
	assert.NoError(t, pkgerrors.WrapParse("yaml", "x", nil))
}

func TestIOError(t *testing.T) {
	err := pkgerrors.WrapIO("rename", "/out/prices.json", fs.ErrExist)
	assert.Equal(t, "IO error during rename of /out/prices.json: file already exists", err.Error())
	assert.ErrorIs(t, err, fs.ErrExist)

	noPath := &pkgerrors.IOError{Operation: "write", Err: errors.New("disk full")}
	assert.Equal(t, "IO error during write: disk full", noPath.Error())
	assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
}

func TestResourceError(t *testing.T) {
	err := pkgerrors.WrapResource("load", "reference", "SUDECAP", pkgerrors.ErrUnsupportedFormat)
	assert.Equal(t, "failed to load reference SUDECAP: unsupported format", err.Error())
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedFormat)

	noID := pkgerrors.WrapResource("export", "artifact", "", errors.New("disk full"))
	assert.Equal(t, "failed to export artifact: disk full", noID.Error())
	assert.NoError(t, pkgerrors.WrapResource("load", "budget", "", nil))
}

func TestConfigError(t *testing.T) {
	base := errors.New("bad tag")
	err := pkgerrors.NewConfigError("banks", "invalid rule", base)
	assert.Equal(t, "configuration error in banks: invalid rule", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "configuration error: x", pkgerrors.NewConfigError("", "x", nil).Error())
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, pkgerrors.IsCanceled(errors.Join(pkgerrors.ErrCanceled, errors.New("ctx"))))
	assert.False(t, pkgerrors.IsCanceled(pkgerrors.ErrNotFound))
}
