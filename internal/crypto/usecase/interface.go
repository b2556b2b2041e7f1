// Package usecase orchestrates the key hierarchy: master key lifecycle and rotation, DEK
// issuance and unwrap, and envelope encryption of values.
package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

// MasterKeyRepository persists wrapped master keys.
//
// Every method participates in a transaction carried by ctx (see database.GetTx). A
// missing record is reported as cryptoDomain.ErrMasterKeyNotFound.
//
// Available implementations:
//   - PostgreSQLMasterKeyRepository
//   - MySQLMasterKeyRepository
type MasterKeyRepository interface {
	// Create stores a new master key record.
	Create(ctx context.Context, masterKey *cryptoDomain.MasterKey) error

	// Get returns the record with the given id, active or not.
	Get(ctx context.Context, id uuid.UUID) (*cryptoDomain.MasterKey, error)

	// GetActive returns the single active record.
	GetActive(ctx context.Context) (*cryptoDomain.MasterKey, error)

	// UpdateMetadata sets the expiry and active flag of a record. The wrapped key is
	// immutable.
	UpdateMetadata(ctx context.Context, id uuid.UUID, expiresAt time.Time, isActive bool) error
}

// KeyManagementUseCase owns the in-memory active master key and issues and unwraps DEKs.
//
// The service starts uninitialized. Init (or Rotate) loads or creates the active master
// key; GenerateDek rotates lazily once the cached key has expired. DEKs that reference an
// older master key are unwrapped by fetching that key from the store.
type KeyManagementUseCase interface {
	// Init loads the active master key at startup. It runs the rotation protocol.
	Init(ctx context.Context) error

	// Rotate reconciles the cached master key with the store:
	//  1. an unexpired active record is unwrapped and cached
	//  2. an expired active record is deactivated and replaced by a new key
	//  3. with no active record, a new key is created
	//
	// The deactivation and creation in case 2 commit in one transaction.
	Rotate(ctx context.Context) error

	// GenerateDek issues a DEK wrapped under the active master key. The caller must
	// Close the returned Dek. Returns cryptoDomain.ErrMasterKeyNotLoaded before Init.
	GenerateDek(ctx context.Context) (*cryptoDomain.Dek, error)

	// DecryptDek returns the plaintext key of a wrapped DEK. The caller must zero it.
	DecryptDek(ctx context.Context, dek *cryptoDomain.WrappedDek) ([]byte, error)

	// Status returns the metadata of the active master key.
	Status(ctx context.Context) (*cryptoDomain.MasterKeyStatus, error)

	// Close zeroes the cached master key.
	Close()
}

// StreamOpener returns the destination of an encrypted stream once its DEK is known.
type StreamOpener = func(dek []byte) (io.Writer, error)

// EnvelopeUseCase encrypts values under fresh DEKs.
type EnvelopeUseCase interface {
	// Encrypt seals plaintext under a new DEK and returns the ciphertext with its
	// serialized wrapped DEK.
	Encrypt(ctx context.Context, plaintext []byte) (*cryptoDomain.EncryptedValue, error)

	// Decrypt unwraps the value's DEK and opens the ciphertext on every call. A copy of
	// the plaintext replaces the cache on value; the returned slice belongs to the caller.
	Decrypt(ctx context.Context, value *cryptoDomain.EncryptedValue) ([]byte, error)

	// EncryptStream encrypts src under a new DEK. open is called once with the serialized
	// wrapped DEK, before any ciphertext is produced, and returns the destination.
	EncryptStream(ctx context.Context, src io.Reader, open StreamOpener) error

	// DecryptStream decrypts a stream written by EncryptStream. On error, output already
	// written to dst is unauthenticated as a whole and must be discarded.
	DecryptStream(ctx context.Context, dek []byte, src io.Reader, dst io.Writer) error
}
