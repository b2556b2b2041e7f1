package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

func TestValidateName(t *testing.T) {
	valid := []string{
		"report.pdf",
		"2026/01/statement-01.csv",
		"a",
		"dir.with.dots/file_name",
		strings.Repeat("x", 255),
	}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{
		"",
		"../etc/passwd",
		"a/../b",
		"a/./b",
		"/absolute",
		"trailing/",
		"double//slash",
		"space name",
		"emoji-😀",
		`back\slash`,
		strings.Repeat("x", 256),
	}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidFileName, name)
	}
}

func TestPlaintextSize(t *testing.T) {
	sealed := int64(cryptoDomain.StreamChunkSize + cryptoDomain.TagSize)

	tests := []struct {
		name       string
		ciphertext int64
		want       int64
	}{
		{name: "empty stream", ciphertext: cryptoDomain.TagSize, want: 0},
		{name: "one byte", ciphertext: 1 + cryptoDomain.TagSize, want: 1},
		{name: "exactly one chunk", ciphertext: sealed + cryptoDomain.TagSize, want: cryptoDomain.StreamChunkSize},
		{name: "multi chunk with partial", ciphertext: 3*sealed + 17 + cryptoDomain.TagSize, want: 3*cryptoDomain.StreamChunkSize + 17},
		{name: "shorter than a tag", ciphertext: 3, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaintextSize(tt.ciphertext))
		})
	}
}
