package app

import (
	"context"
	"fmt"
	"time"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	cryptoRepository "github.com/allisson/pandorica/internal/crypto/repository"
	cryptoService "github.com/allisson/pandorica/internal/crypto/service"
	cryptoUseCase "github.com/allisson/pandorica/internal/crypto/usecase"
	"github.com/allisson/pandorica/internal/crypto/vault"
	"github.com/allisson/pandorica/internal/database"
	"github.com/allisson/pandorica/internal/metrics"
)

type cryptoComponents struct {
	registry      lazy[*cryptoService.Registry]
	hasher        lazy[cryptoService.PasswordHasher]
	deriver       lazy[cryptoService.KeyDeriver]
	masterKeyRepo lazy[cryptoUseCase.MasterKeyRepository]
	keyManager    lazy[cryptoService.KeyManager]
	keyManagement lazy[cryptoUseCase.KeyManagementUseCase]
	envelope      lazy[cryptoUseCase.EnvelopeUseCase]
}

// RegistryConfig maps the provider selectors and backend settings of the configuration.
func (c *Container) RegistryConfig() cryptoService.RegistryConfig {
	cfg := c.config
	return cryptoService.RegistryConfig{
		EncryptionProvider:    cfg.EncryptionProvider,
		HashingProvider:       cfg.HashingProvider,
		KeyDerivationProvider: cfg.KeyDerivationProvider,
		EnvelopeProvider:      cfg.EnvelopeProvider,
		BcryptCost:            cfg.BcryptCost,
		HKDFInfo:              cfg.HKDFInfo,
		GCP: vault.GCPConfig{
			ProjectID:       cfg.GCPProjectID,
			Location:        cfg.GCPKeyRingLocation,
			KeyRing:         cfg.GCPKeyRingName,
			CredentialsFile: cfg.GCPCredentialsFile,
			Endpoint:        cfg.GCPKMSEndpoint,
		},
		AWS: vault.AWSConfig{
			Region:          cfg.AWSRegion,
			KeyID:           cfg.AWSKMSKeyID,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			SessionToken:    cfg.AWSSessionToken,
			Endpoint:        cfg.AWSKMSEndpoint,
		},
		HashiVault: vault.HashiVaultConfig{
			Address:     cfg.VaultAddress,
			Token:       cfg.VaultToken,
			TransitPath: cfg.VaultTransitPath,
		},
		Keeper: vault.KeeperConfig{
			URLTemplate: cfg.KeeperURLTemplate,
		},
	}
}

// Registry returns the provider registry. Building it connects to the envelope backend.
func (c *Container) Registry() (*cryptoService.Registry, error) {
	return c.registry.get(func() (*cryptoService.Registry, error) {
		registry, err := cryptoService.NewRegistry(context.Background(), c.RegistryConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to build crypto registry: %w", err)
		}
		c.onShutdown("key vault", func(context.Context) error { return registry.Close() })
		return registry, nil
	})
}

// PasswordHasher returns the configured password hasher without opening the vault.
func (c *Container) PasswordHasher() (cryptoService.PasswordHasher, error) {
	return c.hasher.get(func() (cryptoService.PasswordHasher, error) {
		return cryptoService.NewPasswordHasherFromConfig(c.RegistryConfig())
	})
}

// KeyDeriver returns the configured key deriver without opening the vault.
func (c *Container) KeyDeriver() (cryptoService.KeyDeriver, error) {
	return c.deriver.get(func() (cryptoService.KeyDeriver, error) {
		return cryptoService.NewKeyDeriverFromConfig(c.RegistryConfig())
	})
}

// MasterKeyRepository returns the master key store for the configured driver.
func (c *Container) MasterKeyRepository() (cryptoUseCase.MasterKeyRepository, error) {
	return c.masterKeyRepo.get(func() (cryptoUseCase.MasterKeyRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for master key repository: %w", err)
		}

		switch c.config.DBDriver {
		case database.DriverPostgres:
			return cryptoRepository.NewPostgreSQLMasterKeyRepository(db), nil
		case database.DriverMySQL:
			return cryptoRepository.NewMySQLMasterKeyRepository(db), nil
		default:
			return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
}

// KeyManager returns the key manager wrapping master keys under MASTER_KEY_NAME.
func (c *Container) KeyManager() (cryptoService.KeyManager, error) {
	return c.keyManager.get(func() (cryptoService.KeyManager, error) {
		if c.config.MasterKeyName == "" {
			return nil, fmt.Errorf("MASTER_KEY_NAME is required")
		}
		registry, err := c.Registry()
		if err != nil {
			return nil, err
		}
		return cryptoService.NewKeyManager(registry.Cipher, registry.Vault, c.config.MasterKeyName), nil
	})
}

// KeyManagementUseCase returns the master key lifecycle use case. The caller must call
// Init before issuing DEKs.
func (c *Container) KeyManagementUseCase() (cryptoUseCase.KeyManagementUseCase, error) {
	return c.keyManagement.get(func() (cryptoUseCase.KeyManagementUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for key management: %w", err)
		}
		masterKeyRepo, err := c.MasterKeyRepository()
		if err != nil {
			return nil, err
		}
		keyManager, err := c.KeyManager()
		if err != nil {
			return nil, err
		}

		useCase := cryptoUseCase.NewKeyManagementUseCase(
			cryptoUseCase.KeyManagementConfig{MasterKeyTTL: c.config.MasterKeyTTL},
			txManager,
			masterKeyRepo,
			keyManager,
			c.Logger(),
		)
		c.onShutdown("master key", func(context.Context) error {
			useCase.Close()
			return nil
		})

		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}
		if provider == nil {
			return useCase, nil
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}
		err = metrics.RegisterMasterKeyExpiry(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
			masterKeyExpiry(useCase),
		)
		if err != nil {
			return nil, err
		}
		return cryptoUseCase.NewKeyManagementUseCaseWithMetrics(useCase, businessMetrics), nil
	})
}

// EnvelopeUseCase returns the DEK envelope use case.
func (c *Container) EnvelopeUseCase() (cryptoUseCase.EnvelopeUseCase, error) {
	return c.envelope.get(func() (cryptoUseCase.EnvelopeUseCase, error) {
		keyManagement, err := c.KeyManagementUseCase()
		if err != nil {
			return nil, err
		}
		registry, err := c.Registry()
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		useCase := cryptoUseCase.NewEnvelopeUseCase(keyManagement, registry.Cipher)
		return cryptoUseCase.NewEnvelopeUseCaseWithMetrics(useCase, businessMetrics), nil
	})
}

func masterKeyExpiry(keyManagement cryptoUseCase.KeyManagementUseCase) metrics.ExpiryFunc {
	return func(ctx context.Context) (time.Time, error) {
		status, err := keyManagement.Status(ctx)
		if err != nil {
			return time.Time{}, err
		}
		if !status.IsActive {
			return time.Time{}, cryptoDomain.ErrMasterKeyNotFound
		}
		return status.ExpiresAt, nil
	}
}
