package domain

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/pandorica/internal/errors"
)

func newTestWrappedDek() *WrappedDek {
	return &WrappedDek{
		WrappedKey:    bytes.Repeat([]byte{0xaa}, KeySize+TagSize),
		DataNonce:     bytes.Repeat([]byte{0xbb}, 24),
		WrappingNonce: bytes.Repeat([]byte{0xcc}, 24),
		MasterKeyID:   uuid.Must(uuid.NewV7()),
	}
}

func TestWrappedDek_MarshalBinary(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		dek := newTestWrappedDek()

		data, err := dek.MarshalBinary()
		require.NoError(t, err)

		decoded, err := ParseWrappedDek(data)
		require.NoError(t, err)
		assert.Equal(t, dek, decoded)
	})

	t.Run("fixed big-endian layout", func(t *testing.T) {
		id := uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057")
		dek := &WrappedDek{
			WrappedKey:    []byte{1, 2},
			DataNonce:     []byte{3},
			WrappingNonce: []byte{4, 5, 6},
			MasterKeyID:   id,
		}

		data, err := dek.MarshalBinary()
		require.NoError(t, err)

		expected := []byte{0, 0, 0, 2, 1, 2, 0, 0, 0, 1, 3, 0, 0, 0, 3, 4, 5, 6}
		expected = append(expected, id[:]...)
		assert.Equal(t, expected, data)
	})

	t.Run("deterministic", func(t *testing.T) {
		dek := newTestWrappedDek()
		a, err := dek.MarshalBinary()
		require.NoError(t, err)
		b, err := dek.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestWrappedDek_UnmarshalBinary(t *testing.T) {
	valid, err := newTestWrappedDek().MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "truncated length prefix", data: valid[:2]},
		{name: "truncated field", data: valid[:10]},
		{name: "missing master key id", data: valid[:len(valid)-16]},
		{name: "trailing bytes", data: append(append([]byte(nil), valid...), 0x00)},
		{name: "oversized field", data: []byte{0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWrappedDek(tt.data)
			assert.ErrorIs(t, err, ErrInvalidDekEncoding)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		})
	}
}

func TestDek_Close(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)
	dek := &Dek{WrappedDek: *newTestWrappedDek(), Key: key}

	dek.Close()

	assert.Nil(t, dek.Key)
	assert.Equal(t, make([]byte, KeySize), key)

	var nilDek *Dek
	assert.NotPanics(t, nilDek.Close)
}
