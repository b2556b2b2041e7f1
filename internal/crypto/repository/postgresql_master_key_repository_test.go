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

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	"github.com/allisson/pandorica/internal/database"
	apperrors "github.com/allisson/pandorica/internal/errors"
)

var masterKeyColumns = []string{"id", "wrapped_key", "is_active", "created_at", "expires_at"}

func newTestMasterKey() *cryptoDomain.MasterKey {
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &cryptoDomain.MasterKey{
		ID:         uuid.Must(uuid.NewV7()),
		CreatedAt:  createdAt,
		ExpiresAt:  createdAt.Add(90 * 24 * time.Hour),
		IsActive:   true,
		WrappedKey: []byte("wrapped-master-key"),
	}
}

func TestPostgreSQLMasterKeyRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLMasterKeyRepository(db)
	masterKey := newTestMasterKey()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO master_keys")).
			WithArgs(masterKey.ID.String(), masterKey.WrappedKey, true, masterKey.CreatedAt, masterKey.ExpiresAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), masterKey))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_UniqueViolation", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO master_keys")).
			WillReturnError(errors.New("duplicate key value violates unique constraint"))

		err := repo.Create(context.Background(), masterKey)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create master key")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLMasterKeyRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLMasterKeyRepository(db)
	masterKey := newTestMasterKey()
	masterKey.IsActive = false

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(masterKeyColumns).AddRow(
			masterKey.ID.String(),
			masterKey.WrappedKey,
			masterKey.IsActive,
			masterKey.CreatedAt,
			masterKey.ExpiresAt,
		)
		mock.ExpectQuery(regexp.QuoteMeta("FROM master_keys WHERE id = $1")).
			WithArgs(masterKey.ID.String()).
			WillReturnRows(rows)

		got, err := repo.Get(context.Background(), masterKey.ID)
		require.NoError(t, err)
		assert.Equal(t, masterKey, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM master_keys WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(masterKeyColumns))

		got, err := repo.Get(context.Background(), uuid.Must(uuid.NewV7()))
		assert.Nil(t, got)
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeyNotFound)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("Error_Query", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM master_keys WHERE id = $1")).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Get(context.Background(), masterKey.ID)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, cryptoDomain.ErrMasterKeyNotFound)
	})
}

func TestPostgreSQLMasterKeyRepository_GetActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLMasterKeyRepository(db)
	masterKey := newTestMasterKey()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(masterKeyColumns).AddRow(
			masterKey.ID.String(),
			masterKey.WrappedKey,
			true,
			masterKey.CreatedAt,
			masterKey.ExpiresAt,
		)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = TRUE")).WillReturnRows(rows)

		got, err := repo.GetActive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, masterKey.ID, got.ID)
		assert.True(t, got.IsActive)
		assert.Equal(t, masterKey.WrappedKey, got.WrappedKey)
	})

	t.Run("Error_FirstRun", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = TRUE")).
			WillReturnRows(sqlmock.NewRows(masterKeyColumns))

		_, err := repo.GetActive(context.Background())
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeyNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLMasterKeyRepository_UpdateMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLMasterKeyRepository(db)
	masterKey := newTestMasterKey()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE master_keys SET expires_at = $1, is_active = $2 WHERE id = $3")).
			WithArgs(masterKey.ExpiresAt, false, masterKey.ID.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateMetadata(context.Background(), masterKey.ID, masterKey.ExpiresAt, false))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE master_keys")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateMetadata(context.Background(), masterKey.ID, masterKey.ExpiresAt, false)
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeyNotFound)
	})

	t.Run("Error_Exec", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE master_keys")).
			WillReturnError(errors.New("deadlock detected"))

		err := repo.UpdateMetadata(context.Background(), masterKey.ID, masterKey.ExpiresAt, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update master key")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLMasterKeyRepository_RotationInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLMasterKeyRepository(db)
	txManager := database.NewTxManager(db)
	old := newTestMasterKey()
	next := newTestMasterKey()

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE master_keys")).
			WithArgs(old.ExpiresAt, false, old.ID.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO master_keys")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := txManager.WithTx(context.Background(), func(ctx context.Context) error {
			if err := repo.UpdateMetadata(ctx, old.ID, old.ExpiresAt, false); err != nil {
				return err
			}
			return repo.Create(ctx, next)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE master_keys")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO master_keys")).
			WillReturnError(errors.New("duplicate key value violates unique constraint"))
		mock.ExpectRollback()

		err := txManager.WithTx(context.Background(), func(ctx context.Context) error {
			if err := repo.UpdateMetadata(ctx, old.ID, old.ExpiresAt, false); err != nil {
				return err
			}
			return repo.Create(ctx, next)
		})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
