package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/store"
)

// MemoryStore implements store.CredentialStore in process memory.
// Records live as long as the process does.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]store.Credential
	now         func() time.Time
}

var _ store.CredentialStore = (*MemoryStore)(nil)

// New creates an empty in-memory credential store.
func New() *MemoryStore {
	return &MemoryStore{
		credentials: make(map[string]store.Credential),
		now:         time.Now,
	}
}

// CreateCredential stores the hash unless the username is already taken.
func (s *MemoryStore) CreateCredential(_ context.Context, username string, passwordHash []byte) (*store.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.credentials[username]; exists {
		return nil, store.ErrCredentialExists
	}

	cred := store.Credential{
		Username:     username,
		PasswordHash: append([]byte(nil), passwordHash...),
		CreatedAt:    s.now().UTC(),
	}
	s.credentials[username] = cred

	return copyCredential(cred), nil
}

// GetCredential returns a copy of the stored credential.
func (s *MemoryStore) GetCredential(_ context.Context, username string) (*store.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[username]
	if !ok {
		return nil, store.ErrCredentialNotFound
	}
	return copyCredential(cred), nil
}

// CountCredentials returns the number of stored credentials.
func (s *MemoryStore) CountCredentials(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.credentials), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func copyCredential(c store.Credential) *store.Credential {
	c.PasswordHash = append([]byte(nil), c.PasswordHash...)
	return &c
}
