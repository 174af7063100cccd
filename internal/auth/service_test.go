package auth

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vovakirdan/wirechat-relay/internal/store/memory"
	"github.com/vovakirdan/wirechat-relay/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) (*Service, *memory.MemoryStore) {
	t.Helper()

	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })

	hasher, err := NewHasher(HashBlake2b)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return NewService(st, hasher), st
}

func TestRegisterOrVerify_FirstLoginRegisters(t *testing.T) {
	svc, st := newTestAuthService(t)
	ctx := context.Background()

	res, err := svc.RegisterOrVerify(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	if !res.Registered || res.Username != "alice" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if n, _ := st.CountCredentials(ctx); n != 1 {
		t.Fatalf("expected one credential, got %d", n)
	}
}

func TestRegisterOrVerify_RepeatedLoginsShareRecord(t *testing.T) {
	svc, st := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterOrVerify(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	first, _ := st.GetCredential(ctx, "alice")

	for i := 0; i < 5; i++ {
		res, err := svc.RegisterOrVerify(ctx, "alice", "secret123")
		if err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
		if res.Registered {
			t.Fatalf("login %d unexpectedly registered again", i)
		}
	}

	after, _ := st.GetCredential(ctx, "alice")
	if !bytes.Equal(first.PasswordHash, after.PasswordHash) {
		t.Fatalf("stored hash changed between logins")
	}
	if n, _ := st.CountCredentials(ctx); n != 1 {
		t.Fatalf("expected one credential, got %d", n)
	}
}

func TestRegisterOrVerify_WrongPasswordRejected(t *testing.T) {
	svc, st := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterOrVerify(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	before, _ := st.GetCredential(ctx, "alice")

	for i := 0; i < 3; i++ {
		if _, err := svc.RegisterOrVerify(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}

	after, _ := st.GetCredential(ctx, "alice")
	if !bytes.Equal(before.PasswordHash, after.PasswordHash) {
		t.Fatalf("failed login mutated stored hash")
	}

	// Still retryable with the right password.
	if _, err := svc.RegisterOrVerify(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestRegisterOrVerify_TrimsUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterOrVerify(ctx, " alice ", "secret123"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	res, err := svc.RegisterOrVerify(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if res.Username != "alice" || res.Registered {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRegisterOrVerify_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterOrVerify(ctx, "   ", "secret123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
	if _, err := svc.RegisterOrVerify(ctx, "abcdefghijklmnopqrstuvwxyz0123456", "secret123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername for long name, got %v", err)
	}
	if _, err := svc.RegisterOrVerify(ctx, "alice", ""); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRegisterOrVerify_ConcurrentFirstUse(t *testing.T) {
	svc, st := newTestAuthService(t)
	ctx := context.Background()

	passwords := []string{"one", "two", "three", "four", "five", "six", "seven", "eight"}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []string
	)
	for _, pw := range passwords {
		wg.Add(1)
		go func(pw string) {
			defer wg.Done()
			if _, err := svc.RegisterOrVerify(ctx, "alice", pw); err == nil {
				mu.Lock()
				accepted = append(accepted, pw)
				mu.Unlock()
			}
		}(pw)
	}
	wg.Wait()

	if len(accepted) != 1 {
		t.Fatalf("expected exactly one password to win registration, got %v", accepted)
	}
	if _, err := svc.RegisterOrVerify(ctx, "alice", accepted[0]); err != nil {
		t.Fatalf("winning password no longer accepted: %v", err)
	}
	if n, _ := st.CountCredentials(ctx); n != 1 {
		t.Fatalf("expected one credential, got %d", n)
	}
}

func TestRegisterOrVerify_SQLiteBcrypt(t *testing.T) {
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	hasher, err := NewHasher(HashBcrypt)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	svc := NewService(st, hasher)
	ctx := context.Background()

	if _, err := svc.RegisterOrVerify(ctx, "bob", "hunter22"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := svc.RegisterOrVerify(ctx, "bob", "hunter22"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if _, err := svc.RegisterOrVerify(ctx, "bob", "hunter23"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestBlake2bHasherDeterministic(t *testing.T) {
	h, _ := NewHasher(HashBlake2b)

	a, _ := h.Hash("secret123")
	b, _ := h.Hash("secret123")
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical hashes for identical passwords")
	}
	if !h.Verify(a, "secret123") || h.Verify(a, "secret124") {
		t.Fatalf("verify returned wrong result")
	}
}

func TestNewHasherUnknown(t *testing.T) {
	if _, err := NewHasher("md5"); err == nil {
		t.Fatalf("expected error for unknown hash")
	}
}
