package dto

import (
	"encoding/base64"
	"time"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

// EncryptedValueResponse is the JSON form of an envelope-encrypted value.
type EncryptedValueResponse struct {
	Ciphertext string `json:"ciphertext"`
	Dek        string `json:"dek"`
}

// MapEncryptedValueToResponse encodes both parts of value as base64.
func MapEncryptedValueToResponse(value *cryptoDomain.EncryptedValue) EncryptedValueResponse {
	return EncryptedValueResponse{
		Ciphertext: base64.StdEncoding.EncodeToString(value.Ciphertext),
		Dek:        base64.StdEncoding.EncodeToString(value.Dek),
	}
}

// DecryptValueResponse carries the recovered plaintext.
type DecryptValueResponse struct {
	Plaintext string `json:"plaintext"`
}

// MapPlaintextToResponse encodes plaintext as base64. The caller still owns plaintext.
func MapPlaintextToResponse(plaintext []byte) DecryptValueResponse {
	return DecryptValueResponse{Plaintext: base64.StdEncoding.EncodeToString(plaintext)}
}

// HashPasswordResponse carries an encoded password hash.
type HashPasswordResponse struct {
	Hash string `json:"hash"`
}

// VerifyPasswordResponse reports whether a password matched.
type VerifyPasswordResponse struct {
	Valid bool `json:"valid"`
}

// DeriveKeyResponse carries derived key material.
type DeriveKeyResponse struct {
	Key string `json:"key"`
}

// MasterKeyStatusResponse describes the active master key.
type MasterKeyStatusResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsActive  bool      `json:"is_active"`
}

// MapMasterKeyStatusToResponse converts a domain status to its API form.
func MapMasterKeyStatusToResponse(status *cryptoDomain.MasterKeyStatus) MasterKeyStatusResponse {
	return MasterKeyStatusResponse{
		ID:        status.ID.String(),
		CreatedAt: status.CreatedAt,
		ExpiresAt: status.ExpiresAt,
		IsActive:  status.IsActive,
	}
}
