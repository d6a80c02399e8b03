package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	secretsDomain "github.com/allisson/rotavault/internal/secrets/domain"
	"github.com/allisson/rotavault/internal/testutil"
)

func mustBinary(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	b, err := id.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestMySQLSecretRepository_Get(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, name, envelope, created_at, updated_at`)

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLSecretRepository(db)

		id := uuid.Must(uuid.NewV7())
		now := time.Now().UTC()
		mock.ExpectQuery(query).
			WithArgs("db_password").
			WillReturnRows(sqlmock.NewRows(secretColumns).AddRow(mustBinary(t, id), "db_password", "envelope", now, now))

		secret, err := repo.Get(ctx, "db_password")
		require.NoError(t, err)
		assert.Equal(t, id, secret.ID)
		assert.Equal(t, "envelope", secret.Envelope)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLSecretRepository(db)

		mock.ExpectQuery(query).WithArgs("missing").WillReturnRows(sqlmock.NewRows(secretColumns))

		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLSecretRepository(db)

		now := time.Now().UTC()
		mock.ExpectQuery(query).
			WithArgs("db_password").
			WillReturnRows(sqlmock.NewRows(secretColumns).AddRow([]byte{0x01, 0x02}, "db_password", "envelope", now, now))

		_, err := repo.Get(ctx, "db_password")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal secret id")
	})
}

func TestMySQLSecretRepository_Put(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO secrets (id, name, envelope, created_at, updated_at)`) + ".*ON DUPLICATE KEY UPDATE"

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLSecretRepository(db)
		secret := newSecret("db_password", "envelope")

		mock.ExpectExec(query).
			WithArgs(mustBinary(t, secret.ID), secret.Name, secret.Envelope, secret.CreatedAt, secret.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Put(ctx, secret))
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLSecretRepository(db)

		mock.ExpectExec(query).WillReturnError(errors.New("deadlock"))

		err := repo.Put(ctx, newSecret("db_password", "envelope"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to put secret")
	})
}

func TestMySQLSecretRepository_List(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, name, envelope, created_at, updated_at`) + ".*ORDER BY name ASC"

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLSecretRepository(db)

		idA := uuid.Must(uuid.NewV7())
		idB := uuid.Must(uuid.NewV7())
		now := time.Now().UTC()
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(secretColumns).
			AddRow(mustBinary(t, idA), "alpha", "envelope-a", now, now).
			AddRow(mustBinary(t, idB), "bravo", "envelope-b", now, now))

		secrets, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, secrets, 2)
		assert.Equal(t, idA, secrets[0].ID)
		assert.Equal(t, idB, secrets[1].ID)
	})

	t.Run("Error_Query", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLSecretRepository(db)

		mock.ExpectQuery(query).WillReturnError(errors.New("timeout"))

		_, err := repo.List(ctx)
		assert.Error(t, err)
	})
}

func TestMySQLSecretRepository_Integration(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)

	ctx := context.Background()
	repo := NewMySQLSecretRepository(db)

	secret := newSecret("db_password", "envelope-1")
	require.NoError(t, repo.Put(ctx, secret))

	secret.Envelope = "envelope-2"
	require.NoError(t, repo.Put(ctx, secret))

	got, err := repo.Get(ctx, "db_password")
	require.NoError(t, err)
	assert.Equal(t, secret.ID, got.ID)
	assert.Equal(t, "envelope-2", got.Envelope)
}
