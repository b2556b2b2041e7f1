package service

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	"github.com/allisson/pandorica/internal/crypto/vault"
)

// RegistryConfig holds the provider selectors and the settings of each backend. Only the
// settings of the selected envelope provider are used.
type RegistryConfig struct {
	EncryptionProvider    string
	HashingProvider       string
	KeyDerivationProvider string
	EnvelopeProvider      string

	BcryptCost   int
	ScryptParams ScryptParams
	HKDFInfo     string

	GCP        vault.GCPConfig
	AWS        vault.AWSConfig
	HashiVault vault.HashiVaultConfig
	Keeper     vault.KeeperConfig
}

// Registry bundles one implementation per cryptographic capability. It is built once at
// startup and never mutated.
type Registry struct {
	Cipher         Cipher
	PasswordHasher PasswordHasher
	KeyDeriver     KeyDeriver
	Vault          vault.KeyVault
}

// NewRegistry parses every selector and builds the selected implementations. An
// unrecognized selector returns an error wrapping cryptoDomain.ErrUnknownProvider before
// any backend connection is opened.
func NewRegistry(ctx context.Context, cfg RegistryConfig) (*Registry, error) {
	encryption, err := cryptoDomain.ParseEncryptionProvider(cfg.EncryptionProvider)
	if err != nil {
		return nil, err
	}
	hashing, err := cryptoDomain.ParseHashingProvider(cfg.HashingProvider)
	if err != nil {
		return nil, err
	}
	derivation, err := cryptoDomain.ParseKeyDerivationProvider(cfg.KeyDerivationProvider)
	if err != nil {
		return nil, err
	}
	envelope, err := cryptoDomain.ParseEnvelopeProvider(cfg.EnvelopeProvider)
	if err != nil {
		return nil, err
	}

	cipher, err := NewCipher(encryption.Algorithm())
	if err != nil {
		return nil, err
	}

	hasher, err := newPasswordHasher(hashing, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	keyVault, err := newKeyVault(ctx, envelope, cfg)
	if err != nil {
		return nil, err
	}

	return &Registry{
		Cipher:         cipher,
		PasswordHasher: hasher,
		KeyDeriver:     newKeyDeriver(derivation, cfg),
		Vault:          keyVault,
	}, nil
}

// Close releases the vault backend.
func (r *Registry) Close() error {
	if r.Vault == nil {
		return nil
	}
	return r.Vault.Close()
}

func newPasswordHasher(p cryptoDomain.HashingProvider, bcryptCost int) (PasswordHasher, error) {
	if p == cryptoDomain.HashingBcrypt {
		return NewBcryptHasher(bcryptCost), nil
	}
	return NewArgon2idHasher()
}

func newKeyDeriver(p cryptoDomain.KeyDerivationProvider, cfg RegistryConfig) KeyDeriver {
	if p == cryptoDomain.KeyDerivationHKDFSHA512 {
		return NewHKDFDeriver(cfg.HKDFInfo)
	}
	params := cfg.ScryptParams
	if params.LogN == 0 {
		params = DefaultScryptParams
	}
	return NewScryptDeriver(params)
}

func newKeyVault(ctx context.Context, p cryptoDomain.EnvelopeProvider, cfg RegistryConfig) (vault.KeyVault, error) {
	var (
		keyVault vault.KeyVault
		err      error
	)
	switch p {
	case cryptoDomain.EnvelopeAWS:
		keyVault, err = vault.NewAWSKeyVault(ctx, cfg.AWS)
	case cryptoDomain.EnvelopeVault:
		keyVault, err = vault.NewHashiVaultKeyVault(cfg.HashiVault)
	case cryptoDomain.EnvelopeKeeper:
		keyVault, err = vault.NewKeeperKeyVault(cfg.Keeper)
	default:
		keyVault, err = vault.NewGCPKeyVault(ctx, cfg.GCP)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s key vault: %w", p, err)
	}
	return keyVault, nil
}

// NewPasswordHasherFromConfig builds only the selected password hasher. It opens no
// vault backend.
func NewPasswordHasherFromConfig(cfg RegistryConfig) (PasswordHasher, error) {
	hashing, err := cryptoDomain.ParseHashingProvider(cfg.HashingProvider)
	if err != nil {
		return nil, err
	}
	return newPasswordHasher(hashing, cfg.BcryptCost)
}

// NewKeyDeriverFromConfig builds only the selected key deriver. It opens no vault backend.
func NewKeyDeriverFromConfig(cfg RegistryConfig) (KeyDeriver, error) {
	derivation, err := cryptoDomain.ParseKeyDerivationProvider(cfg.KeyDerivationProvider)
	if err != nil {
		return nil, err
	}
	return newKeyDeriver(derivation, cfg), nil
}
