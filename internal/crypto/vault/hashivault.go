package vault

import (
	"context"
	"encoding/base64"
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"
)

// HashiVaultConfig configures the HashiCorp Vault transit backend.
type HashiVaultConfig struct {
	Address     string
	Token       string
	TransitPath string
}

// logicalWriter is the subset of the Vault logical client used by the backend.
type logicalWriter interface {
	WriteWithContext(ctx context.Context, path string, data map[string]interface{}) (*vaultapi.Secret, error)
}

// HashiVaultKeyVault is a KeyVault backed by the Vault transit secrets engine. Random
// bytes come from sys/tools/random.
type HashiVaultKeyVault struct {
	transitPath string
	logical     logicalWriter
}

// NewHashiVaultKeyVault creates a Vault client. VAULT_* environment variables apply
// first and explicit configuration overrides them.
func NewHashiVaultKeyVault(cfg HashiVaultConfig) (*HashiVaultKeyVault, error) {
	vaultCfg := vaultapi.DefaultConfig()
	if cfg.Address != "" {
		vaultCfg.Address = cfg.Address
	}

	client, err := vaultapi.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	return newHashiVaultKeyVaultWithLogical(cfg.TransitPath, client.Logical()), nil
}

func newHashiVaultKeyVaultWithLogical(transitPath string, logical logicalWriter) *HashiVaultKeyVault {
	if transitPath == "" {
		transitPath = "transit"
	}
	return &HashiVaultKeyVault{transitPath: transitPath, logical: logical}
}

func (h *HashiVaultKeyVault) Name() string {
	return "vault"
}

func (h *HashiVaultKeyVault) EncryptEnvelope(ctx context.Context, plaintext []byte, keyName string) ([]byte, error) {
	secret, err := h.logical.WriteWithContext(ctx, fmt.Sprintf("%s/encrypt/%s", h.transitPath, keyName),
		map[string]interface{}{
			"plaintext": base64.StdEncoding.EncodeToString(plaintext),
		})
	if err != nil {
		return nil, fmt.Errorf("vault transit encrypt: %w", err)
	}
	ciphertext, err := secretString(secret, "ciphertext")
	if err != nil {
		return nil, err
	}
	// Transit ciphertexts are "vault:v<version>:<base64>" and are stored verbatim.
	return []byte(ciphertext), nil
}

func (h *HashiVaultKeyVault) DecryptEnvelope(ctx context.Context, ciphertext []byte, keyName string) ([]byte, error) {
	secret, err := h.logical.WriteWithContext(ctx, fmt.Sprintf("%s/decrypt/%s", h.transitPath, keyName),
		map[string]interface{}{
			"ciphertext": string(ciphertext),
		})
	if err != nil {
		return nil, fmt.Errorf("vault transit decrypt: %w", err)
	}
	encoded, err := secretString(secret, "plaintext")
	if err != nil {
		return nil, err
	}
	plaintext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: vault plaintext is not base64", ErrInvalidResponse)
	}
	return plaintext, nil
}

func (h *HashiVaultKeyVault) GenerateRandomBytes(ctx context.Context, n int) ([]byte, error) {
	if err := validateRandomLength(n); err != nil {
		return nil, err
	}
	secret, err := h.logical.WriteWithContext(ctx, fmt.Sprintf("sys/tools/random/%d", n),
		map[string]interface{}{
			"format": "base64",
		})
	if err != nil {
		return nil, fmt.Errorf("vault generate random: %w", err)
	}
	encoded, err := secretString(secret, "random_bytes")
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: vault random bytes are not base64", ErrInvalidResponse)
	}
	return checkRandomLength(h.Name(), data, n)
}

// Close is a no-op; the Vault client uses a shared HTTP transport.
func (h *HashiVaultKeyVault) Close() error {
	return nil
}

func secretString(secret *vaultapi.Secret, field string) (string, error) {
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: vault returned no data", ErrInvalidResponse)
	}
	value, ok := secret.Data[field].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: vault response missing %q", ErrInvalidResponse, field)
	}
	return value, nil
}
