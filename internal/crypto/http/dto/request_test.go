package dto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncryptValueRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request EncryptValueRequest
		wantErr bool
	}{
		{
			name:    "valid",
			request: EncryptValueRequest{Plaintext: base64.StdEncoding.EncodeToString([]byte("card 4111"))},
		},
		{name: "empty plaintext", request: EncryptValueRequest{}, wantErr: true},
		{name: "invalid base64", request: EncryptValueRequest{Plaintext: "not base64!"}, wantErr: true},
		{
			name:    "too large",
			request: EncryptValueRequest{Plaintext: base64.StdEncoding.EncodeToString(make([]byte, MaxValueBytes+1))},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecryptValueRequest_Validate(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString([]byte("data"))

	assert.NoError(t, (&DecryptValueRequest{Ciphertext: valid, Dek: valid}).Validate())
	assert.Error(t, (&DecryptValueRequest{Ciphertext: valid}).Validate())
	assert.Error(t, (&DecryptValueRequest{Dek: valid}).Validate())
	assert.Error(t, (&DecryptValueRequest{Ciphertext: valid, Dek: "%%%"}).Validate())
}

func TestPasswordRequests_Validate(t *testing.T) {
	assert.NoError(t, (&HashPasswordRequest{Password: "hunter2"}).Validate())
	assert.Error(t, (&HashPasswordRequest{}).Validate())

	assert.NoError(t, (&VerifyPasswordRequest{Password: "hunter2", Hash: "$2a$10$abc"}).Validate())
	assert.Error(t, (&VerifyPasswordRequest{Password: "hunter2", Hash: "   "}).Validate())
	assert.Error(t, (&VerifyPasswordRequest{Password: "hunter2", Hash: " $2a$10$abc"}).Validate())
	assert.Error(t, (&VerifyPasswordRequest{Hash: "$2a$10$abc"}).Validate())
}

func TestDeriveKeyRequest_Validate(t *testing.T) {
	input := base64.StdEncoding.EncodeToString([]byte("input keying material"))
	salt := base64.StdEncoding.EncodeToString([]byte("salt"))

	tests := []struct {
		name    string
		request DeriveKeyRequest
		wantErr bool
	}{
		{name: "valid", request: DeriveKeyRequest{Input: input, Salt: salt, Length: 32}},
		{name: "max length", request: DeriveKeyRequest{Input: input, Salt: salt, Length: MaxDerivedKeyLength}},
		{name: "zero length", request: DeriveKeyRequest{Input: input, Salt: salt}, wantErr: true},
		{name: "negative length", request: DeriveKeyRequest{Input: input, Salt: salt, Length: -1}, wantErr: true},
		{
			name:    "length above max",
			request: DeriveKeyRequest{Input: input, Salt: salt, Length: MaxDerivedKeyLength + 1},
			wantErr: true,
		},
		{name: "missing salt", request: DeriveKeyRequest{Input: input, Length: 32}, wantErr: true},
		{name: "invalid input", request: DeriveKeyRequest{Input: "?", Salt: salt, Length: 32}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
