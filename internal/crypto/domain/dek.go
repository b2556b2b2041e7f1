package domain

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// maxDekFieldSize bounds each length-prefixed field when decoding untrusted input.
const maxDekFieldSize = 1 << 20

// WrappedDek is the storable form of a Data Encryption Key. WrappedKey is the DEK
// encrypted under the referenced master key with WrappingNonce. DataNonce is reserved for
// encrypting the payload the DEK protects.
type WrappedDek struct {
	WrappedKey    []byte
	DataNonce     []byte
	WrappingNonce []byte
	MasterKeyID   uuid.UUID
}

// MarshalBinary encodes the DEK as big-endian length-prefixed fields in a fixed order:
// wrapped key, data nonce, wrapping nonce, then the 16 raw bytes of the master key ID.
func (w *WrappedDek) MarshalBinary() ([]byte, error) {
	size := 3*4 + len(w.WrappedKey) + len(w.DataNonce) + len(w.WrappingNonce) + len(uuid.UUID{})
	buf := make([]byte, 0, size)
	for _, field := range [][]byte{w.WrappedKey, w.DataNonce, w.WrappingNonce} {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(field)))
		buf = append(buf, field...)
	}
	buf = append(buf, w.MasterKeyID[:]...)
	return buf, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary. Truncated input, oversized
// fields and trailing bytes return ErrInvalidDekEncoding.
func (w *WrappedDek) UnmarshalBinary(data []byte) error {
	var fields [3][]byte
	rest := data
	for i := range fields {
		if len(rest) < 4 {
			return fmt.Errorf("%w: truncated length prefix", ErrInvalidDekEncoding)
		}
		n := binary.BigEndian.Uint32(rest)
		rest = rest[4:]
		if n > maxDekFieldSize || int(n) > len(rest) {
			return fmt.Errorf("%w: field length %d out of range", ErrInvalidDekEncoding, n)
		}
		fields[i] = append([]byte(nil), rest[:n]...)
		rest = rest[n:]
	}

	if len(rest) != len(uuid.UUID{}) {
		return fmt.Errorf("%w: expected %d master key id bytes, got %d",
			ErrInvalidDekEncoding, len(uuid.UUID{}), len(rest))
	}
	masterKeyID, err := uuid.FromBytes(rest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDekEncoding, err)
	}

	w.WrappedKey = fields[0]
	w.DataNonce = fields[1]
	w.WrappingNonce = fields[2]
	w.MasterKeyID = masterKeyID
	return nil
}

// ParseWrappedDek decodes a serialized DEK.
func ParseWrappedDek(data []byte) (*WrappedDek, error) {
	w := &WrappedDek{}
	if err := w.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return w, nil
}

// Dek is the working form of a freshly issued Data Encryption Key. Key holds the
// plaintext DEK and must be zeroed with Close once the payload is encrypted.
type Dek struct {
	WrappedDek
	Key []byte
}

// Close zeroes the plaintext DEK.
func (d *Dek) Close() {
	if d == nil {
		return
	}
	Zero(d.Key)
	d.Key = nil
}
