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

	"github.com/allisson/rotavault/internal/database"
	apperrors "github.com/allisson/rotavault/internal/errors"
	secretsDomain "github.com/allisson/rotavault/internal/secrets/domain"
	"github.com/allisson/rotavault/internal/testutil"
)

var secretColumns = []string{"id", "name", "envelope", "created_at", "updated_at"}

func TestPostgreSQLSecretRepository_Get(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, name, envelope, created_at, updated_at`)

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		id := uuid.Must(uuid.NewV7())
		now := time.Now().UTC()
		mock.ExpectQuery(query).
			WithArgs("db_password").
			WillReturnRows(sqlmock.NewRows(secretColumns).AddRow(id.String(), "db_password", "envelope", now, now))

		secret, err := repo.Get(ctx, "db_password")
		require.NoError(t, err)
		assert.Equal(t, id, secret.ID)
		assert.Equal(t, "db_password", secret.Name)
		assert.Equal(t, "envelope", secret.Envelope)
		assert.Equal(t, now, secret.CreatedAt)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		mock.ExpectQuery(query).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(secretColumns))

		secret, err := repo.Get(ctx, "missing")
		assert.Nil(t, secret)
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		mock.ExpectQuery(query).WithArgs("db_password").WillReturnError(errors.New("connection reset"))

		_, err := repo.Get(ctx, "db_password")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get secret")
	})
}

func TestPostgreSQLSecretRepository_Put(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO secrets (id, name, envelope, created_at, updated_at)`)

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)
		secret := newSecret("db_password", "envelope")

		mock.ExpectExec(query + ".*ON CONFLICT \\(name\\) DO UPDATE").
			WithArgs(secret.ID, secret.Name, secret.Envelope, secret.CreatedAt, secret.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Put(ctx, secret))
	})

	t.Run("Success_UsesTransactionFromContext", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)
		txManager := database.NewTxManager(db)
		secret := newSecret("db_password", "envelope")

		mock.ExpectBegin()
		mock.ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := txManager.WithTx(ctx, func(txCtx context.Context) error {
			return repo.Put(txCtx, secret)
		})
		assert.NoError(t, err)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		mock.ExpectExec(query).WillReturnError(errors.New("disk full"))

		err := repo.Put(ctx, newSecret("db_password", "envelope"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to put secret")
	})
}

func TestPostgreSQLSecretRepository_List(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, name, envelope, created_at, updated_at`) + ".*ORDER BY name ASC"

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		now := time.Now().UTC()
		rows := sqlmock.NewRows(secretColumns).
			AddRow(uuid.Must(uuid.NewV7()).String(), "alpha", "envelope-a", now, now).
			AddRow(uuid.Must(uuid.NewV7()).String(), "bravo", "envelope-b", now, now)
		mock.ExpectQuery(query).WillReturnRows(rows)

		secrets, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, secrets, 2)
		assert.Equal(t, "alpha", secrets[0].Name)
		assert.Equal(t, "envelope-b", secrets[1].Envelope)
	})

	t.Run("Success_Empty", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(secretColumns))

		secrets, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, secrets)
		assert.Empty(t, secrets)
	})

	t.Run("Error_Query", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		mock.ExpectQuery(query).WillReturnError(errors.New("timeout"))

		_, err := repo.List(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list secrets")
	})

	t.Run("Error_RowIteration", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		now := time.Now().UTC()
		rows := sqlmock.NewRows(secretColumns).
			AddRow(uuid.Must(uuid.NewV7()).String(), "alpha", "envelope-a", now, now).
			RowError(0, errors.New("broken row"))
		mock.ExpectQuery(query).WillReturnRows(rows)

		_, err := repo.List(ctx)
		assert.Error(t, err)
	})
}

func TestPostgreSQLSecretRepository_Integration(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	ctx := context.Background()
	repo := NewPostgreSQLSecretRepository(db)

	secret := newSecret("db_password", "envelope-1")
	require.NoError(t, repo.Put(ctx, secret))

	secret.Envelope = "envelope-2"
	secret.UpdatedAt = secret.UpdatedAt.Add(time.Minute)
	require.NoError(t, repo.Put(ctx, secret))

	got, err := repo.Get(ctx, "db_password")
	require.NoError(t, err)
	assert.Equal(t, secret.ID, got.ID)
	assert.Equal(t, "envelope-2", got.Envelope)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
