package service

import (
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/scrypt"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

// maxDerivedKeyLength caps requested output lengths for every deriver.
const maxDerivedKeyLength = 1024

// ScryptParams holds the scrypt cost parameters.
type ScryptParams struct {
	LogN uint8
	R    int
	P    int
}

// DefaultScryptParams are the recommended interactive parameters (N=2^17, r=8, p=1).
var DefaultScryptParams = ScryptParams{LogN: 17, R: 8, P: 1}

// ScryptDeriver derives keys with scrypt.
type ScryptDeriver struct {
	params ScryptParams
}

// NewScryptDeriver creates a scrypt deriver with the given cost parameters.
func NewScryptDeriver(params ScryptParams) *ScryptDeriver {
	return &ScryptDeriver{params: params}
}

func (s *ScryptDeriver) Derive(input, salt []byte, length int) ([]byte, error) {
	if err := validateDerivation(salt, length); err != nil {
		return nil, err
	}
	key, err := scrypt.Key(input, salt, 1<<s.params.LogN, s.params.R, s.params.P, length)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrInvalidDerivationParams, err)
	}
	return key, nil
}

// HKDFDeriver derives keys with HKDF-SHA512. Info binds the output to a purpose.
type HKDFDeriver struct {
	info []byte
}

// NewHKDFDeriver creates an HKDF-SHA512 deriver.
func NewHKDFDeriver(info string) *HKDFDeriver {
	return &HKDFDeriver{info: []byte(info)}
}

func (h *HKDFDeriver) Derive(input, salt []byte, length int) ([]byte, error) {
	if err := validateDerivation(salt, length); err != nil {
		return nil, err
	}
	if length > 255*sha512.Size {
		return nil, fmt.Errorf("%w: hkdf-sha512 output limited to %d bytes",
			cryptoDomain.ErrInvalidDerivationParams, 255*sha512.Size)
	}
	key := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha512.New, input, salt, h.info), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

func validateDerivation(salt []byte, length int) error {
	if length <= 0 || length > maxDerivedKeyLength {
		return fmt.Errorf("%w: length must be between 1 and %d", cryptoDomain.ErrInvalidDerivationParams,
			maxDerivedKeyLength)
	}
	if len(salt) == 0 {
		return fmt.Errorf("%w: salt is required", cryptoDomain.ErrInvalidDerivationParams)
	}
	return nil
}
