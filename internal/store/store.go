package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCredentialNotFound is returned when no credential exists for a username.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrCredentialExists is returned when a credential for the username is already stored.
	ErrCredentialExists = errors.New("credential already exists")
)

// Credential is the stored password hash for a username.
// Records are created once and never updated.
type Credential struct {
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// CredentialStore handles credential persistence.
type CredentialStore interface {
	// CreateCredential inserts a credential if the username is not taken yet.
	// Returns ErrCredentialExists when another record already owns the username.
	CreateCredential(ctx context.Context, username string, passwordHash []byte) (*Credential, error)

	// GetCredential retrieves a credential by username.
	// Returns ErrCredentialNotFound when the username was never registered.
	GetCredential(ctx context.Context, username string) (*Credential, error)

	// CountCredentials returns the number of registered usernames.
	CountCredentials(ctx context.Context) (int, error)

	// Close releases the underlying resources.
	Close() error
}
