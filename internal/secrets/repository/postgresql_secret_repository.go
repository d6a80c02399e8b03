// Package repository implements data persistence for secrets.
// Secrets can be kept in memory, PostgreSQL or MySQL; every implementation stores one row
// per name and replaces it in place on update.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/rotavault/internal/database"
	apperrors "github.com/allisson/rotavault/internal/errors"
	secretsDomain "github.com/allisson/rotavault/internal/secrets/domain"
)

// PostgreSQLSecretRepository implements Secret persistence for PostgreSQL databases.
type PostgreSQLSecretRepository struct {
	db *sql.DB
}

// Get retrieves a secret by name.
func (p *PostgreSQLSecretRepository) Get(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, envelope, created_at, updated_at
			  FROM secrets
			  WHERE name = $1`

	var secret secretsDomain.Secret
	err := querier.QueryRowContext(ctx, query, name).Scan(
		&secret.ID,
		&secret.Name,
		&secret.Envelope,
		&secret.CreatedAt,
		&secret.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, secretsDomain.ErrSecretNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get secret")
	}

	return &secret, nil
}

// Put inserts a secret or replaces the envelope of the secret with the same name.
func (p *PostgreSQLSecretRepository) Put(ctx context.Context, secret *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO secrets (id, name, envelope, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (name) DO UPDATE
			  SET envelope = EXCLUDED.envelope, updated_at = EXCLUDED.updated_at`

	_, err := querier.ExecContext(
		ctx,
		query,
		secret.ID,
		secret.Name,
		secret.Envelope,
		secret.CreatedAt,
		secret.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to put secret")
	}
	return nil
}

// List retrieves every secret ordered by name.
func (p *PostgreSQLSecretRepository) List(ctx context.Context) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, envelope, created_at, updated_at
			  FROM secrets
			  ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}
	defer func() {
		_ = rows.Close()
	}()

	secrets := make([]*secretsDomain.Secret, 0)
	for rows.Next() {
		var secret secretsDomain.Secret
		if err := rows.Scan(
			&secret.ID,
			&secret.Name,
			&secret.Envelope,
			&secret.CreatedAt,
			&secret.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan secret")
		}
		secrets = append(secrets, &secret)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate secrets")
	}

	return secrets, nil
}

// NewPostgreSQLSecretRepository creates a new PostgreSQL Secret repository instance.
func NewPostgreSQLSecretRepository(db *sql.DB) *PostgreSQLSecretRepository {
	return &PostgreSQLSecretRepository{db: db}
}
