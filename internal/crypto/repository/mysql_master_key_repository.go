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

// MySQLMasterKeyRepository stores master key records in MySQL.
// Uses BINARY(16) for UUIDs and BLOB for the wrapped key with transaction support.
type MySQLMasterKeyRepository struct {
	db *sql.DB
}

// Create inserts a new master key record.
func (m *MySQLMasterKeyRepository) Create(ctx context.Context, masterKey *cryptoDomain.MasterKey) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO master_keys (id, wrapped_key, is_active, created_at, expires_at)
			  VALUES (?, ?, ?, ?, ?)`

	id, err := masterKey.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal master key id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLMasterKeyRepository) Get(ctx context.Context, id uuid.UUID) (*cryptoDomain.MasterKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, wrapped_key, is_active, created_at, expires_at FROM master_keys WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal master key id")
	}

	return m.scan(querier.QueryRowContext(ctx, query, idBytes))
}

// GetActive returns the single active record.
func (m *MySQLMasterKeyRepository) GetActive(ctx context.Context) (*cryptoDomain.MasterKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, wrapped_key, is_active, created_at, expires_at FROM master_keys
			  WHERE is_active = TRUE ORDER BY created_at DESC LIMIT 1`

	return m.scan(querier.QueryRowContext(ctx, query))
}

// UpdateMetadata changes the expiry and active flag of an existing record. MySQL reports
// zero affected rows when the values are unchanged, so a zero count is confirmed with an
// existence check before returning ErrMasterKeyNotFound.
func (m *MySQLMasterKeyRepository) UpdateMetadata(
	ctx context.Context,
	id uuid.UUID,
	expiresAt time.Time,
	isActive bool,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE master_keys SET expires_at = ?, is_active = ? WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal master key id")
	}

	result, err := querier.ExecContext(ctx, query, expiresAt, isActive, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update master key")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if rows > 0 {
		return nil
	}

	var exists int
	err = querier.QueryRowContext(ctx, `SELECT 1 FROM master_keys WHERE id = ?`, idBytes).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cryptoDomain.ErrMasterKeyNotFound
		}
		return apperrors.Wrap(err, "failed to check master key")
	}
	return nil
}

func (m *MySQLMasterKeyRepository) scan(row *sql.Row) (*cryptoDomain.MasterKey, error) {
	var masterKey cryptoDomain.MasterKey
	var id []byte

	err := row.Scan(
		&id,
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

	if err := masterKey.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal master key id")
	}

	masterKey.CreatedAt = masterKey.CreatedAt.UTC()
	masterKey.ExpiresAt = masterKey.ExpiresAt.UTC()
	return &masterKey, nil
}

// NewMySQLMasterKeyRepository creates a MySQL-backed master key repository.
func NewMySQLMasterKeyRepository(db *sql.DB) *MySQLMasterKeyRepository {
	return &MySQLMasterKeyRepository{db: db}
}
