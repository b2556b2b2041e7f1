package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/allisson/go-pwdhash"
	"golang.org/x/crypto/bcrypt"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	apperrors "github.com/allisson/pandorica/internal/errors"
)

const argon2idPrefix = "$argon2id$"

// Argon2idHasher hashes passwords as Argon2id PHC strings.
type Argon2idHasher struct {
	hasher *pwdhash.PasswordHasher
}

// NewArgon2idHasher creates an Argon2id hasher using the moderate cost policy.
func NewArgon2idHasher() (*Argon2idHasher, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		return nil, fmt.Errorf("failed to create argon2id hasher: %w", err)
	}
	return &Argon2idHasher{hasher: hasher}, nil
}

// Hash returns an Argon2id PHC string with a fresh random salt.
func (a *Argon2idHasher) Hash(password []byte) (string, error) {
	hash, err := a.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Verify compares password against an Argon2id PHC string in constant time.
func (a *Argon2idHasher) Verify(password []byte, hash string) (bool, error) {
	if !strings.HasPrefix(hash, argon2idPrefix) {
		return false, cryptoDomain.ErrInvalidPasswordHash
	}
	ok, err := a.hasher.Verify(password, hash)
	if err != nil {
		return false, nil
	}
	return ok, nil
}

// BcryptHasher hashes passwords with bcrypt. Passwords longer than 72 bytes are rejected.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt hasher. A cost outside bcrypt's range uses the default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (b *BcryptHasher) Hash(password []byte) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(password, b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.Wrap(apperrors.ErrInvalidInput, "password exceeds 72 bytes")
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (b *BcryptHasher) Verify(password []byte, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), password)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", cryptoDomain.ErrInvalidPasswordHash, err)
	}
}
