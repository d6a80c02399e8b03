package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/rotavault/internal/database"
	apperrors "github.com/allisson/rotavault/internal/errors"
	secretsDomain "github.com/allisson/rotavault/internal/secrets/domain"
)

// MySQLSecretRepository implements Secret persistence for MySQL databases.
// IDs are stored as BINARY(16).
type MySQLSecretRepository struct {
	db *sql.DB
}

// Get retrieves a secret by name.
func (m *MySQLSecretRepository) Get(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, envelope, created_at, updated_at
			  FROM secrets
			  WHERE name = ?`

	var secret secretsDomain.Secret
	var id []byte

	err := querier.QueryRowContext(ctx, query, name).Scan(
		&id,
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

	if err := secret.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal secret id")
	}

	return &secret, nil
}

// Put inserts a secret or replaces the envelope of the secret with the same name.
func (m *MySQLSecretRepository) Put(ctx context.Context, secret *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO secrets (id, name, envelope, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE envelope = VALUES(envelope), updated_at = VALUES(updated_at)`

	id, err := secret.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLSecretRepository) List(ctx context.Context) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

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
		var id []byte
		if err := rows.Scan(
			&id,
			&secret.Name,
			&secret.Envelope,
			&secret.CreatedAt,
			&secret.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan secret")
		}
		if err := secret.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal secret id")
		}
		secrets = append(secrets, &secret)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate secrets")
	}

	return secrets, nil
}

// NewMySQLSecretRepository creates a new MySQL Secret repository instance.
func NewMySQLSecretRepository(db *sql.DB) *MySQLSecretRepository {
	return &MySQLSecretRepository{db: db}
}
