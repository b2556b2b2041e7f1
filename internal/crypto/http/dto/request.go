// Package dto provides data transfer objects for the crypto HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/pandorica/internal/validation"
)

// MaxValueBytes caps the decoded size of a value sent to the encrypt endpoint. Larger
// payloads belong in the files API.
const MaxValueBytes = 4 << 20

// MaxDerivedKeyLength mirrors the largest output the key derivers accept.
const MaxDerivedKeyLength = 1024

// EncryptValueRequest contains a value to protect.
type EncryptValueRequest struct {
	Plaintext string `json:"plaintext"` // Base64-encoded
}

// Validate checks if the encrypt request is valid.
func (r *EncryptValueRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Plaintext,
			validation.Required,
			customValidation.Base64,
			customValidation.Base64MaxBytes(MaxValueBytes),
		),
	)
}

// DecryptValueRequest contains an envelope-encrypted value.
type DecryptValueRequest struct {
	Ciphertext string `json:"ciphertext"` // Base64-encoded
	Dek        string `json:"dek"`        // Base64-encoded serialized wrapped DEK
}

// Validate checks if the decrypt request is valid.
func (r *DecryptValueRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Ciphertext, validation.Required, customValidation.Base64),
		validation.Field(&r.Dek, validation.Required, customValidation.Base64),
	)
}

// HashPasswordRequest contains a password to hash.
type HashPasswordRequest struct {
	Password string `json:"password"`
}

// Validate checks if the hash request is valid.
func (r *HashPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Password, validation.Required, validation.Length(1, 1024)),
	)
}

// VerifyPasswordRequest contains a password and the hash to check it against.
type VerifyPasswordRequest struct {
	Password string `json:"password"`
	Hash     string `json:"hash"`
}

// Validate checks if the verify request is valid.
func (r *VerifyPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Password, validation.Required, validation.Length(1, 1024)),
		validation.Field(&r.Hash,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
		),
	)
}

// DeriveKeyRequest contains the key derivation parameters.
type DeriveKeyRequest struct {
	Input  string `json:"input"` // Base64-encoded
	Salt   string `json:"salt"`  // Base64-encoded
	Length int    `json:"length"`
}

// Validate checks if the derive request is valid.
func (r *DeriveKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Input, validation.Required, customValidation.Base64),
		validation.Field(&r.Salt, validation.Required, customValidation.Base64),
		validation.Field(&r.Length, validation.Required, validation.Min(1), validation.Max(MaxDerivedKeyLength)),
	)
}
