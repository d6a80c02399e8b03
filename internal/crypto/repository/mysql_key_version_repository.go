package repository

import (
	"context"
	"database/sql"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	"github.com/allisson/rotavault/internal/database"
	apperrors "github.com/allisson/rotavault/internal/errors"
)

// MySQLKeyVersionRepository implements KeyVersion persistence for MySQL.
type MySQLKeyVersionRepository struct {
	db *sql.DB
}

// Create stores a new key version row.
func (m *MySQLKeyVersionRepository) Create(ctx context.Context, kv *cryptoDomain.KeyVersion) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO key_versions (version, passphrase_fingerprint, created_at, rotated_at)
			  VALUES (?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, kv.Version, kv.Fingerprint, kv.CreatedAt, kv.RotatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create key version")
	}
	return nil
}

// Update writes the rotated_at timestamp of an existing key version.
func (m *MySQLKeyVersionRepository) Update(ctx context.Context, kv *cryptoDomain.KeyVersion) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE key_versions SET rotated_at = ? WHERE version = ?`

	result, err := querier.ExecContext(ctx, query, kv.RotatedAt, kv.Version)
	if err != nil {
		return apperrors.Wrap(err, "failed to update key version")
	}
	return checkAffected(result, kv.Version)
}

// List returns every key version, highest version first.
func (m *MySQLKeyVersionRepository) List(ctx context.Context) ([]*cryptoDomain.KeyVersion, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT version, passphrase_fingerprint, created_at, rotated_at
			  FROM key_versions
			  ORDER BY version DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list key versions")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanKeyVersions(rows)
}

// NewMySQLKeyVersionRepository creates a new MySQL KeyVersion repository.
func NewMySQLKeyVersionRepository(db *sql.DB) *MySQLKeyVersionRepository {
	return &MySQLKeyVersionRepository{db: db}
}
