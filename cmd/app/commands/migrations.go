package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/allisson/rotavault/internal/database"
)

// RunMigrations brings the key_versions and secrets schema for driver up to date using
// the files under migrationsRoot/<dialect>. An up-to-date schema is not an error.
func RunMigrations(logger *slog.Logger, migrationsRoot, driver, connectionString string) error {
	dir, err := database.MigrationsDir(driver)
	if err != nil {
		return err
	}
	source := "file://" + filepath.ToSlash(filepath.Join(migrationsRoot, dir))

	m, err := migrate.New(source, connectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	logger.Info("running database migrations", slog.String("driver", driver), slog.String("source", source))

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("database schema already up to date")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("migrations completed",
		slog.Uint64("schema_version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}
