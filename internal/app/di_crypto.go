package app

import (
	"context"
	"fmt"

	"github.com/juju/clock"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	cryptoHTTP "github.com/allisson/rotavault/internal/crypto/http"
	cryptoRepository "github.com/allisson/rotavault/internal/crypto/repository"
	cryptoService "github.com/allisson/rotavault/internal/crypto/service"
	cryptoUseCase "github.com/allisson/rotavault/internal/crypto/usecase"
)

// KMSService returns the KMS service used to unwrap the master passphrase.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KeyVersionRepository returns the key version repository for the configured store.
func (c *Container) KeyVersionRepository() (cryptoUseCase.KeyVersionRepository, error) {
	var err error
	c.keyVersionRepoInit.Do(func() {
		c.keyVersionRepo, err = c.initKeyVersionRepository()
		if err != nil {
			c.recordError("keyVersionRepo", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("keyVersionRepo"); storedErr != nil {
		return nil, storedErr
	}
	return c.keyVersionRepo, nil
}

// KeyUseCase returns the key lifecycle use case wrapped with business metrics.
func (c *Container) KeyUseCase() (cryptoUseCase.KeyUseCase, error) {
	var err error
	c.keyUseCaseInit.Do(func() {
		c.keyUseCase, err = c.initKeyUseCase()
		if err != nil {
			c.recordError("keyUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("keyUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.keyUseCase, nil
}

// EncryptionManager returns the process-wide keyring, loaded from the persisted key
// versions on first access.
func (c *Container) EncryptionManager(ctx context.Context) (*cryptoService.EncryptionManager, error) {
	var err error
	c.encryptionManagerInit.Do(func() {
		manager, initErr := c.initEncryptionManager(ctx)
		if initErr != nil {
			err = initErr
			c.recordError("encryptionManager", err)
			return
		}
		c.mu.Lock()
		c.encryptionManager = manager
		c.mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("encryptionManager"); storedErr != nil {
		return nil, storedErr
	}
	return c.encryptionManager, nil
}

// KeyHandler returns the HTTP handler for key operations.
func (c *Container) KeyHandler(ctx context.Context) (*cryptoHTTP.KeyHandler, error) {
	keyUseCase, err := c.KeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get key use case for key handler: %w", err)
	}

	manager, err := c.EncryptionManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get encryption manager for key handler: %w", err)
	}

	return cryptoHTTP.NewKeyHandler(keyUseCase, manager, c.Logger()), nil
}

// KDFParams returns the configured Argon2id cost parameters.
func (c *Container) KDFParams() cryptoService.KDFParams {
	return cryptoService.KDFParams{
		Time:      c.config.KDFTime,
		MemoryKiB: c.config.KDFMemoryKiB,
		Threads:   c.config.KDFThreads,
	}
}

// initKeyVersionRepository selects the repository by store and database driver.
func (c *Container) initKeyVersionRepository() (cryptoUseCase.KeyVersionRepository, error) {
	if c.InMemory() {
		return cryptoRepository.NewMemoryKeyVersionRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for key version repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return cryptoRepository.NewPostgreSQLKeyVersionRepository(db), nil
	case "mysql":
		return cryptoRepository.NewMySQLKeyVersionRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initKeyUseCase creates the key use case with its dependencies.
func (c *Container) initKeyUseCase() (cryptoUseCase.KeyUseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for key use case: %w", err)
	}

	keyVersionRepo, err := c.KeyVersionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get key version repository for key use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for key use case: %w", err)
	}

	useCase := cryptoUseCase.NewKeyUseCase(
		txManager,
		keyVersionRepo,
		c.config.InitialKeyVersion,
		clock.WallClock,
		logger,
		cryptoService.WithKeyDeriver(cryptoService.NewArgon2KDF(c.KDFParams())),
		cryptoService.WithLogger(logger),
	)
	return cryptoUseCase.NewKeyUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initEncryptionManager resolves the passphrase and loads the keyring. The resolved
// passphrase is zeroed once the manager holds its own copy.
func (c *Container) initEncryptionManager(ctx context.Context) (*cryptoService.EncryptionManager, error) {
	keyUseCase, err := c.KeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get key use case for encryption manager: %w", err)
	}

	passphrase, err := cryptoService.LoadPassphrase(ctx, c.KMSService(), cryptoService.PassphraseSource{
		Plain:     c.config.MasterPassphrase,
		Encrypted: c.config.MasterPassphraseEncrypted,
		KMSKeyURI: c.config.KMSKeyURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load master passphrase: %w", err)
	}
	defer cryptoDomain.Zero(passphrase)

	manager, err := keyUseCase.Load(ctx, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption keys: %w", err)
	}
	return manager, nil
}
