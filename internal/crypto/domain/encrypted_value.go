package domain

import "bytes"

// EncryptedValue is the unit of protected data: a ciphertext plus the serialized
// WrappedDek that can decrypt it. It is safe to store and to marshal as JSON.
//
// After a successful decrypt the plaintext is cached on the instance until Close.
// The cache is excluded from every encoding.
type EncryptedValue struct {
	Ciphertext []byte `json:"ciphertext"`
	Dek        []byte `json:"dek"`

	decoded []byte
}

// WrappedDek decodes the serialized DEK.
func (v *EncryptedValue) WrappedDek() (*WrappedDek, error) {
	return ParseWrappedDek(v.Dek)
}

// Plaintext returns the cached plaintext and whether a decrypt has populated it.
func (v *EncryptedValue) Plaintext() ([]byte, bool) {
	return v.decoded, v.decoded != nil
}

// SetDecoded caches a copy of plaintext, zeroing any previous one. The caller keeps
// ownership of plaintext.
func (v *EncryptedValue) SetDecoded(plaintext []byte) {
	if v.decoded != nil {
		Zero(v.decoded)
	}
	v.decoded = bytes.Clone(plaintext)
	if v.decoded == nil {
		v.decoded = []byte{}
	}
}

// Close zeroes the cached plaintext.
func (v *EncryptedValue) Close() {
	Zero(v.decoded)
	v.decoded = nil
}
