package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vovakirdan/wirechat-relay/internal/store"
)

const maxUsernameLength = 32

var (
	// ErrInvalidCredentials is returned when the password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// Result describes a successful credential check.
type Result struct {
	// Username is the trimmed username the credential is stored under.
	Username string
	// Registered is true when this call created the credential.
	Registered bool
}

// Service checks logins against the credential store, registering unknown usernames on first use.
type Service struct {
	store  store.CredentialStore
	hasher Hasher
}

// NewService creates a new authentication service.
func NewService(credentials store.CredentialStore, hasher Hasher) *Service {
	if hasher == nil {
		hasher = blake2bHasher{}
	}
	return &Service{
		store:  credentials,
		hasher: hasher,
	}
}

// RegisterOrVerify accepts the login when the username is new (storing its hash)
// or when the password matches the stored hash. Any number of attempts is allowed.
func (s *Service) RegisterOrVerify(ctx context.Context, username, password string) (Result, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return Result{}, ErrInvalidUsername
	}
	if password == "" {
		return Result{}, ErrInvalidPassword
	}

	existing, err := s.store.GetCredential(ctx, username)
	switch {
	case err == nil:
		return s.verify(existing, password)
	case !errors.Is(err, store.ErrCredentialNotFound):
		return Result{}, fmt.Errorf("get credential: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Result{}, err
	}

	if _, err := s.store.CreateCredential(ctx, username, hash); err != nil {
		if !errors.Is(err, store.ErrCredentialExists) {
			return Result{}, fmt.Errorf("create credential: %w", err)
		}
		// Lost the first-use race; the winner's record decides.
		existing, err = s.store.GetCredential(ctx, username)
		if err != nil {
			return Result{}, fmt.Errorf("get credential: %w", err)
		}
		return s.verify(existing, password)
	}

	return Result{Username: username, Registered: true}, nil
}

func (s *Service) verify(cred *store.Credential, password string) (Result, error) {
	if !s.hasher.Verify(cred.PasswordHash, password) {
		return Result{}, ErrInvalidCredentials
	}
	return Result{Username: cred.Username}, nil
}
