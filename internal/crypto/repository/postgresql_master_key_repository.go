// Package repository implements master key persistence for PostgreSQL and MySQL.
//
// Only wrapped master key material is stored. Both implementations are transaction-aware
// through database.GetTx, so deactivating the previous record and inserting its successor
// can share one transaction during rotation:
//
//	err := txManager.WithTx(ctx, func(txCtx context.Context) error {
//	    if err := repo.UpdateMetadata(txCtx, old.ID, old.ExpiresAt, false); err != nil {
//	        return err
//	    }
//	    return repo.Create(txCtx, next)
//	})
//
// The schema allows at most one active record; see the master_keys migrations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	"github.com/allisson/pandorica/internal/database"
	apperrors "github.com/allisson/pandorica/internal/errors"
)

// PostgreSQLMasterKeyRepository stores master key records in PostgreSQL using the native
// UUID type and BYTEA for the wrapped key.
type PostgreSQLMasterKeyRepository struct {
	db *sql.DB
}

// Create inserts a new master key record.
func (p *PostgreSQLMasterKeyRepository) Create(ctx context.Context, masterKey *cryptoDomain.MasterKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO master_keys (id, wrapped_key, is_active, created_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		masterKey.ID,
		masterKey.WrappedKey,
		masterKey.IsActive,
		masterKey.CreatedAt,
		masterKey.ExpiresAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create master key")
	}
	return nil
}

// Get returns the record with the given id, active or not.
func (p *PostgreSQLMasterKeyRepository) Get(ctx context.Context, id uuid.UUID) (*cryptoDomain.MasterKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, wrapped_key, is_active, created_at, expires_at FROM master_keys WHERE id = $1`

	return p.scan(querier.QueryRowContext(ctx, query, id))
}

// GetActive returns the single active record.
func (p *PostgreSQLMasterKeyRepository) GetActive(ctx context.Context) (*cryptoDomain.MasterKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, wrapped_key, is_active, created_at, expires_at FROM master_keys
			  WHERE is_active = TRUE ORDER BY created_at DESC LIMIT 1`

	return p.scan(querier.QueryRowContext(ctx, query))
}

// UpdateMetadata changes the expiry and active flag of an existing record. The wrapped key
// is immutable.
func (p *PostgreSQLMasterKeyRepository) UpdateMetadata(
	ctx context.Context,
	id uuid.UUID,
	expiresAt time.Time,
	isActive bool,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE master_keys SET expires_at = $1, is_active = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, expiresAt, isActive, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update master key")
	}
	return checkRowsAffected(result)
}

func (p *PostgreSQLMasterKeyRepository) scan(row *sql.Row) (*cryptoDomain.MasterKey, error) {
	var masterKey cryptoDomain.MasterKey

	err := row.Scan(
		&masterKey.ID,
		&masterKey.WrappedKey,
		&masterKey.IsActive,
		&masterKey.CreatedAt,
		&masterKey.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cryptoDomain.ErrMasterKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get master key")
	}

	masterKey.CreatedAt = masterKey.CreatedAt.UTC()
	masterKey.ExpiresAt = masterKey.ExpiresAt.UTC()
	return &masterKey, nil
}

func checkRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if rows == 0 {
		return cryptoDomain.ErrMasterKeyNotFound
	}
	return nil
}

// NewPostgreSQLMasterKeyRepository creates a PostgreSQL-backed master key repository.
func NewPostgreSQLMasterKeyRepository(db *sql.DB) *PostgreSQLMasterKeyRepository {
	return &PostgreSQLMasterKeyRepository{db: db}
}
