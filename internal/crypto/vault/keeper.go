package vault

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gocloud.dev/secrets"

	// Register all keeper drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// keyNamePlaceholder is replaced by the key name in a keeper URL template.
const keyNamePlaceholder = "{key}"

// KeeperConfig configures the portable keeper backend. URLTemplate is a
// gocloud.dev/secrets URL such as "gcpkms://projects/p/locations/l/keyRings/r/cryptoKeys/{key}"
// or "base64key://<key>". The template may omit the placeholder to use one key for all names.
type KeeperConfig struct {
	URLTemplate string
}

// KeeperKeyVault is a KeyVault backed by gocloud.dev/secrets keepers, opened lazily per
// key name. Random bytes come from the operating system CSPRNG.
type KeeperKeyVault struct {
	urlTemplate string

	mu      sync.Mutex
	keepers map[string]*secrets.Keeper
}

// NewKeeperKeyVault creates a keeper-backed vault.
func NewKeeperKeyVault(cfg KeeperConfig) (*KeeperKeyVault, error) {
	if cfg.URLTemplate == "" {
		return nil, fmt.Errorf("keeper vault requires a url template")
	}
	return &KeeperKeyVault{
		urlTemplate: cfg.URLTemplate,
		keepers:     make(map[string]*secrets.Keeper),
	}, nil
}

func (k *KeeperKeyVault) Name() string {
	return "keeper"
}

func (k *KeeperKeyVault) keeper(ctx context.Context, keyName string) (*secrets.Keeper, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if keeper, ok := k.keepers[keyName]; ok {
		return keeper, nil
	}

	keeperURL := strings.ReplaceAll(k.urlTemplate, keyNamePlaceholder, keyName)
	keeper, err := secrets.OpenKeeper(ctx, keeperURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open keeper for %q: %w", keyName, err)
	}
	k.keepers[keyName] = keeper
	return keeper, nil
}

func (k *KeeperKeyVault) EncryptEnvelope(ctx context.Context, plaintext []byte, keyName string) ([]byte, error) {
	keeper, err := k.keeper(ctx, keyName)
	if err != nil {
		return nil, err
	}
	ciphertext, err := keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, fmt.Errorf("keeper encrypt: %w", err)
	}
	return ciphertext, nil
}

func (k *KeeperKeyVault) DecryptEnvelope(ctx context.Context, ciphertext []byte, keyName string) ([]byte, error) {
	keeper, err := k.keeper(ctx, keyName)
	if err != nil {
		return nil, err
	}
	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("keeper decrypt: %w", err)
	}
	return plaintext, nil
}

func (k *KeeperKeyVault) GenerateRandomBytes(ctx context.Context, n int) ([]byte, error) {
	if err := validateRandomLength(n); err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := rand.Read(data); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return data, nil
}

// Close closes every keeper opened so far.
func (k *KeeperKeyVault) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var errs []error
	for name, keeper := range k.keepers {
		if err := keeper.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close keeper %q: %w", name, err))
		}
		delete(k.keepers, name)
	}
	return errors.Join(errs...)
}
