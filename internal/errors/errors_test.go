package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vaultError struct {
	Backend string
}

func (e *vaultError) Error() string { return e.Backend + " unreachable" }

func TestNew(t *testing.T) {
	err := New("test error")
	require.Error(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	t.Run("wraps sentinel", func(t *testing.T) {
		wrapped := Wrap(ErrNotFound, "master key not found")
		assert.Equal(t, "master key not found: not found", wrapped.Error())
		assert.True(t, Is(wrapped, ErrNotFound))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("double wrap keeps chain", func(t *testing.T) {
		inner := Wrap(ErrInvalidInput, "decryption failed")
		outer := Wrap(inner, "decrypt value")
		assert.True(t, Is(outer, ErrInvalidInput))
		assert.True(t, Is(outer, inner))
	})
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrUnavailable, "vault %s", "gcp")
	assert.Equal(t, "vault gcp: unavailable", wrapped.Error())
	assert.True(t, Is(wrapped, ErrUnavailable))
	assert.NoError(t, Wrapf(nil, "vault %s", "gcp"))
}

func TestAs(t *testing.T) {
	err := Wrap(&vaultError{Backend: "aws"}, "encrypt envelope")

	var target *vaultError
	require.True(t, As(err, &target))
	assert.Equal(t, "aws", target.Backend)
}

func TestJoin(t *testing.T) {
	joined := Join(ErrNotFound, nil, ErrConflict)
	assert.True(t, errors.Is(joined, ErrNotFound))
	assert.True(t, errors.Is(joined, ErrConflict))
	assert.NoError(t, Join(nil, nil))
}
