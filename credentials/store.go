package credentials

import (
	"errors"
	"fmt"
)

// ErrPartialCredential is returned by Save when only one of the two tokens is
// set. The store only ever holds a complete pair or nothing.
var ErrPartialCredential = errors.New("credential must carry both access and refresh tokens")

// Store persists a single credential. Save must be atomic with respect to
// Load: a concurrent reader never observes a half-written credential.
type Store interface {
	// Save overwrites any existing credential.
	Save(cred Credential) error

	// Load returns the stored credential. A missing credential is not an
	// error: ok is false. A credential that exists but cannot be read
	// (corrupt blob, decryption failure) returns a *StorageError.
	Load() (cred Credential, ok bool, err error)

	// Clear removes the credential. Clearing an empty store succeeds.
	Clear() error
}

// StorageError wraps a persistence failure with the operation that caused it.
type StorageError struct {
	Op  string // "save", "load" or "clear"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("credential store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
