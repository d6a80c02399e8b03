// Package repository implements persistence for key-version metadata.
//
// Keys themselves are never stored. A key_versions row records when a version was
// created, when it was superseded, and the public fingerprint of the key derived for
// it, which lets a restarted service detect a changed master passphrase.
//
// # Database Support
//
// Each repository has two implementations:
//   - PostgreSQL: INTEGER version, TIMESTAMPTZ timestamps
//   - MySQL: TINYINT UNSIGNED version, DATETIME(6) timestamps
//
// # Transaction Support
//
// Repositories participate in a transaction carried by the context (database.GetTx),
// which key rotation uses to supersede the old version and record the new one atomically.
//
//	txManager := database.NewTxManager(db)
//	err := txManager.WithTx(ctx, func(txCtx context.Context) error {
//	    if err := repo.Update(txCtx, previous); err != nil {
//	        return err
//	    }
//	    return repo.Create(txCtx, next)
//	})
package repository

import (
	"context"
	"database/sql"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	"github.com/allisson/rotavault/internal/database"
	apperrors "github.com/allisson/rotavault/internal/errors"
)

// PostgreSQLKeyVersionRepository implements KeyVersion persistence for PostgreSQL.
type PostgreSQLKeyVersionRepository struct {
	db *sql.DB
}

// Create stores a new key version row.
func (p *PostgreSQLKeyVersionRepository) Create(ctx context.Context, kv *cryptoDomain.KeyVersion) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO key_versions (version, passphrase_fingerprint, created_at, rotated_at)
			  VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(ctx, query, kv.Version, kv.Fingerprint, kv.CreatedAt, kv.RotatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create key version")
	}
	return nil
}

// Update writes the rotated_at timestamp of an existing key version.
func (p *PostgreSQLKeyVersionRepository) Update(ctx context.Context, kv *cryptoDomain.KeyVersion) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE key_versions SET rotated_at = $1 WHERE version = $2`

	result, err := querier.ExecContext(ctx, query, kv.RotatedAt, kv.Version)
	if err != nil {
		return apperrors.Wrap(err, "failed to update key version")
	}
	return checkAffected(result, kv.Version)
}

// List returns every key version, highest version first.
func (p *PostgreSQLKeyVersionRepository) List(ctx context.Context) ([]*cryptoDomain.KeyVersion, error) {
	querier := database.GetTx(ctx, p.db)

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

// NewPostgreSQLKeyVersionRepository creates a new PostgreSQL KeyVersion repository.
func NewPostgreSQLKeyVersionRepository(db *sql.DB) *PostgreSQLKeyVersionRepository {
	return &PostgreSQLKeyVersionRepository{db: db}
}

func scanKeyVersions(rows *sql.Rows) ([]*cryptoDomain.KeyVersion, error) {
	versions := make([]*cryptoDomain.KeyVersion, 0)
	for rows.Next() {
		var kv cryptoDomain.KeyVersion
		var rotatedAt sql.NullTime
		if err := rows.Scan(&kv.Version, &kv.Fingerprint, &kv.CreatedAt, &rotatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan key version")
		}
		if rotatedAt.Valid {
			t := rotatedAt.Time
			kv.RotatedAt = &t
		}
		versions = append(versions, &kv)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate key versions")
	}
	return versions, nil
}

func checkAffected(result sql.Result, version uint) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return apperrors.Wrapf(cryptoDomain.ErrKeyVersionNotFound, "version %d", version)
	}
	return nil
}
