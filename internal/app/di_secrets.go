package app

import (
	"context"
	"fmt"

	"github.com/juju/clock"

	"github.com/allisson/rotavault/internal/config"
	secretsHTTP "github.com/allisson/rotavault/internal/secrets/http"
	secretsRepository "github.com/allisson/rotavault/internal/secrets/repository"
	secretsUseCase "github.com/allisson/rotavault/internal/secrets/usecase"
)

// SecretRepository returns the secret repository for the configured store.
func (c *Container) SecretRepository() (secretsUseCase.SecretRepository, error) {
	var err error
	c.secretRepoInit.Do(func() {
		c.secretRepo, err = c.initSecretRepository()
		if err != nil {
			c.recordError("secretRepo", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("secretRepo"); storedErr != nil {
		return nil, storedErr
	}
	return c.secretRepo, nil
}

// SecretManager returns the secret manager wrapped with business metrics.
func (c *Container) SecretManager(ctx context.Context) (secretsUseCase.SecretManager, error) {
	var err error
	c.secretManagerInit.Do(func() {
		c.secretManager, err = c.initSecretManager(ctx)
		if err != nil {
			c.recordError("secretManager", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("secretManager"); storedErr != nil {
		return nil, storedErr
	}
	return c.secretManager, nil
}

// SecretHandler returns the HTTP handler for secret operations.
func (c *Container) SecretHandler(ctx context.Context) (*secretsHTTP.SecretHandler, error) {
	secretManager, err := c.SecretManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get secret manager for secret handler: %w", err)
	}

	manager, err := c.EncryptionManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get encryption manager for secret handler: %w", err)
	}

	return secretsHTTP.NewSecretHandler(secretManager, manager, c.Logger()), nil
}

// initSecretRepository selects the repository by store and database driver.
func (c *Container) initSecretRepository() (secretsUseCase.SecretRepository, error) {
	switch c.config.SecretStore {
	case config.SecretStoreMemory:
		return secretsRepository.NewMemorySecretRepository(), nil
	case config.SecretStoreDatabase:
	default:
		return nil, fmt.Errorf("unsupported secret store: %s", c.config.SecretStore)
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for secret repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return secretsRepository.NewPostgreSQLSecretRepository(db), nil
	case "mysql":
		return secretsRepository.NewMySQLSecretRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSecretManager creates the secret manager on top of the loaded keyring.
func (c *Container) initSecretManager(ctx context.Context) (secretsUseCase.SecretManager, error) {
	manager, err := c.EncryptionManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get encryption manager for secret manager: %w", err)
	}

	secretRepo, err := c.SecretRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret repository for secret manager: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for secret manager: %w", err)
	}

	secretManager := secretsUseCase.NewSecretManager(manager, secretRepo, clock.WallClock, c.Logger())
	return secretsUseCase.NewSecretManagerWithMetrics(secretManager, businessMetrics), nil
}
