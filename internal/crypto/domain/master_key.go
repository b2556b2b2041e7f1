// Package domain defines the key hierarchy used for envelope encryption.
//
// A wrapping key held by an external key vault protects the master key. The master key
// protects per-value Data Encryption Keys (DEKs), and each DEK protects exactly one value.
// Persisted types never carry plaintext key material; working types do and must be closed.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MasterKey is the persisted master key record. WrappedKey is the master key material
// encrypted by the key vault; the plaintext is never stored.
type MasterKey struct {
	ID         uuid.UUID // Unique identifier (UUIDv7)
	CreatedAt  time.Time
	ExpiresAt  time.Time
	IsActive   bool
	WrappedKey []byte
}

// IsExpired reports whether the master key's active period has elapsed at now.
func (m *MasterKey) IsExpired(now time.Time) bool {
	return !now.Before(m.ExpiresAt)
}

// Status returns the public metadata of the record.
func (m *MasterKey) Status() *MasterKeyStatus {
	return &MasterKeyStatus{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
		IsActive:  m.IsActive,
	}
}

// MasterKeyStatus is the non-secret view of a master key.
type MasterKeyStatus struct {
	ID        uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	IsActive  bool
}

// ActiveMasterKey is the in-memory working form of the current master key.
type ActiveMasterKey struct {
	Record *MasterKey
	Key    []byte
}

// ID returns the identifier of the underlying record.
func (a *ActiveMasterKey) ID() uuid.UUID {
	return a.Record.ID
}

// IsExpired reports whether the underlying record has expired at now.
func (a *ActiveMasterKey) IsExpired(now time.Time) bool {
	return a.Record.IsExpired(now)
}

// Close zeroes the plaintext master key.
func (a *ActiveMasterKey) Close() {
	if a == nil {
		return
	}
	Zero(a.Key)
	a.Key = nil
}
