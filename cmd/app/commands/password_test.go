package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	cryptoService "github.com/allisson/pandorica/internal/crypto/service"
)

func TestRunHashPassword(t *testing.T) {
	hasher := cryptoService.NewBcryptHasher(bcrypt.MinCost)

	t.Run("flag", func(t *testing.T) {
		var out bytes.Buffer
		err := RunHashPassword(hasher, IOTuple{Reader: strings.NewReader(""), Writer: &out}, "s3cret", FormatText)
		require.NoError(t, err)

		hash := strings.TrimSpace(out.String())
		assert.True(t, strings.HasPrefix(hash, "$2a$04$"))
		valid, err := hasher.Verify([]byte("s3cret"), hash)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("stdin", func(t *testing.T) {
		var out bytes.Buffer
		err := RunHashPassword(hasher, IOTuple{Reader: strings.NewReader("from-stdin\r\n"), Writer: &out}, "", FormatJSON)
		require.NoError(t, err)
		assert.Contains(t, out.String(), `"hash": "$2a$04$`)
	})

	t.Run("empty-stdin", func(t *testing.T) {
		err := RunHashPassword(hasher, IOTuple{Reader: strings.NewReader(""), Writer: &bytes.Buffer{}}, "", FormatText)
		assert.EqualError(t, err, "password is required")
	})
}

func TestRunVerifyPassword(t *testing.T) {
	hasher := cryptoService.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash([]byte("s3cret"))
	require.NoError(t, err)

	t.Run("match", func(t *testing.T) {
		var out bytes.Buffer
		err := RunVerifyPassword(hasher, IOTuple{Reader: strings.NewReader(""), Writer: &out}, "s3cret", hash, FormatText)
		require.NoError(t, err)
		assert.Equal(t, "Password matches\n", out.String())
	})

	t.Run("mismatch", func(t *testing.T) {
		var out bytes.Buffer
		err := RunVerifyPassword(hasher, IOTuple{Reader: strings.NewReader("wrong\n"), Writer: &out}, "", hash, FormatJSON)
		require.ErrorIs(t, err, ErrPasswordMismatch)
		assert.JSONEq(t, `{"valid": false}`, out.String())
	})

	t.Run("foreign-hash", func(t *testing.T) {
		err := RunVerifyPassword(hasher, IOTuple{Writer: &bytes.Buffer{}}, "s3cret", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA", FormatText)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidPasswordHash)
	})

	t.Run("missing-hash", func(t *testing.T) {
		err := RunVerifyPassword(hasher, IOTuple{Writer: &bytes.Buffer{}}, "s3cret", " ", FormatText)
		assert.EqualError(t, err, "hash is required")
	})
}
