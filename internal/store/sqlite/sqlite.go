package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/wirechat-relay/internal/store"
)

// Schema creates the credentials table when it does not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
	username      TEXT NOT NULL PRIMARY KEY,
	password_hash BLOB NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.CredentialStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.CredentialStore = (*SQLiteStore)(nil)

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateCredential inserts a credential row; a duplicate username yields store.ErrCredentialExists.
func (s *SQLiteStore) CreateCredential(ctx context.Context, username string, passwordHash []byte) (*store.Credential, error) {
	query := `
		INSERT INTO credentials (username, password_hash)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, username, passwordHash); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrCredentialExists
		}
		return nil, fmt.Errorf("insert credential: %w", err)
	}

	return s.GetCredential(ctx, username)
}

// GetCredential retrieves a credential by username.
func (s *SQLiteStore) GetCredential(ctx context.Context, username string) (*store.Credential, error) {
	query := `
		SELECT username, password_hash, created_at
		FROM credentials
		WHERE username = ?
	`
	var cred store.Credential
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&cred.Username,
		&cred.PasswordHash,
		&cred.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("query credential: %w", err)
	}

	return &cred, nil
}

// CountCredentials returns the number of registered usernames.
func (s *SQLiteStore) CountCredentials(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count credentials: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
