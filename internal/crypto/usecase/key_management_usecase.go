package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	cryptoService "github.com/allisson/pandorica/internal/crypto/service"
	"github.com/allisson/pandorica/internal/database"
)

// KeyManagementConfig holds key management settings.
type KeyManagementConfig struct {
	// MasterKeyTTL is how long a new master key stays active.
	MasterKeyTTL time.Duration
}

// keyManagementUseCase implements KeyManagementUseCase.
//
// mu guards the cached master key. It is held for the whole rotation sequence and
// while a snapshot of the cached key is taken; vault and store I/O for historical keys
// happens without it.
type keyManagementUseCase struct {
	txManager     database.TxManager
	masterKeyRepo MasterKeyRepository
	keyManager    cryptoService.KeyManager
	ttl           time.Duration
	logger        *slog.Logger
	now           func() time.Time

	mu     sync.Mutex
	active *cryptoDomain.ActiveMasterKey
}

// NewKeyManagementUseCase creates an uninitialized KeyManagementUseCase.
func NewKeyManagementUseCase(
	config KeyManagementConfig,
	txManager database.TxManager,
	masterKeyRepo MasterKeyRepository,
	keyManager cryptoService.KeyManager,
	logger *slog.Logger,
) KeyManagementUseCase {
	ttl := config.MasterKeyTTL
	if ttl <= 0 {
		ttl = cryptoDomain.DefaultMasterKeyTTL
	}
	return &keyManagementUseCase{
		txManager:     txManager,
		masterKeyRepo: masterKeyRepo,
		keyManager:    keyManager,
		ttl:           ttl,
		logger:        logger,
		now:           time.Now,
	}
}

func (k *keyManagementUseCase) Init(ctx context.Context) error {
	return k.Rotate(ctx)
}

func (k *keyManagementUseCase) Rotate(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.rotateLocked(ctx)
}

func (k *keyManagementUseCase) rotateLocked(ctx context.Context) error {
	record, err := k.masterKeyRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, cryptoDomain.ErrMasterKeyNotFound) {
			k.logger.Info("no active master key found, creating one")
			return k.generateLocked(ctx, nil)
		}
		return err
	}

	if record.IsExpired(k.now()) {
		k.logger.Info("active master key expired, rotating",
			slog.String("master_key_id", record.ID.String()),
			slog.Time("expires_at", record.ExpiresAt),
		)
		return k.generateLocked(ctx, record)
	}

	if k.active != nil && k.active.ID() == record.ID {
		return nil
	}

	masterKey, err := k.keyManager.UnwrapMasterKey(ctx, record)
	if err != nil {
		return err
	}
	k.setActiveLocked(masterKey)
	k.logger.Info("master key loaded", slog.String("master_key_id", record.ID.String()))
	return nil
}

// generateLocked creates a new master key, persisting it together with the
// deactivation of expired when present.
func (k *keyManagementUseCase) generateLocked(ctx context.Context, expired *cryptoDomain.MasterKey) error {
	masterKey, err := k.keyManager.CreateMasterKey(ctx, k.now(), k.ttl)
	if err != nil {
		return err
	}

	err = k.txManager.WithTx(ctx, func(ctx context.Context) error {
		if expired != nil {
			if err := k.masterKeyRepo.UpdateMetadata(ctx, expired.ID, expired.ExpiresAt, false); err != nil {
				return err
			}
		}
		return k.masterKeyRepo.Create(ctx, masterKey.Record)
	})
	if err != nil {
		masterKey.Close()
		return err
	}

	k.setActiveLocked(masterKey)
	k.logger.Info("master key created",
		slog.String("master_key_id", masterKey.ID().String()),
		slog.Time("expires_at", masterKey.Record.ExpiresAt),
	)
	return nil
}

func (k *keyManagementUseCase) setActiveLocked(masterKey *cryptoDomain.ActiveMasterKey) {
	if k.active != nil {
		k.active.Close()
	}
	k.active = masterKey
}

// snapshot returns a copy of the cached master key, rotating first when it has expired.
// The caller must Close the copy.
func (k *keyManagementUseCase) snapshot(ctx context.Context) (*cryptoDomain.ActiveMasterKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.active == nil {
		return nil, cryptoDomain.ErrMasterKeyNotLoaded
	}
	if k.active.IsExpired(k.now()) {
		if err := k.rotateLocked(ctx); err != nil {
			return nil, err
		}
	}
	return &cryptoDomain.ActiveMasterKey{
		Record: k.active.Record,
		Key:    append([]byte(nil), k.active.Key...),
	}, nil
}

func (k *keyManagementUseCase) GenerateDek(ctx context.Context) (*cryptoDomain.Dek, error) {
	masterKey, err := k.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer masterKey.Close()

	return k.keyManager.CreateDek(ctx, masterKey)
}

// cachedKey returns a copy of the cached master key plaintext when it has the given id.
func (k *keyManagementUseCase) cachedKey(dek *cryptoDomain.WrappedDek) ([]byte, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.active == nil || k.active.ID() != dek.MasterKeyID {
		return nil, false
	}
	return append([]byte(nil), k.active.Key...), true
}

func (k *keyManagementUseCase) DecryptDek(ctx context.Context, dek *cryptoDomain.WrappedDek) ([]byte, error) {
	if key, ok := k.cachedKey(dek); ok {
		defer cryptoDomain.Zero(key)
		return k.keyManager.DecryptDek(dek, key)
	}

	record, err := k.masterKeyRepo.Get(ctx, dek.MasterKeyID)
	if err != nil {
		return nil, err
	}
	masterKey, err := k.keyManager.UnwrapMasterKey(ctx, record)
	if err != nil {
		return nil, err
	}
	defer masterKey.Close()

	return k.keyManager.DecryptDek(dek, masterKey.Key)
}

// Status reports the cached master key, or the stored active record when the service
// has not been initialized.
func (k *keyManagementUseCase) Status(ctx context.Context) (*cryptoDomain.MasterKeyStatus, error) {
	k.mu.Lock()
	if k.active != nil {
		status := k.active.Record.Status()
		k.mu.Unlock()
		return status, nil
	}
	k.mu.Unlock()

	record, err := k.masterKeyRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	return record.Status(), nil
}

func (k *keyManagementUseCase) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.active.Close()
	k.active = nil
}
