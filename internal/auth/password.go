package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blake2b"
)

const (
	// HashBlake2b is a deterministic unsalted BLAKE2b-256 digest.
	HashBlake2b = "blake2b"
	// HashBcrypt is a salted bcrypt hash.
	HashBcrypt = "bcrypt"

	// bcryptCost is the default cost for bcrypt hashing.
	bcryptCost = 10
)

// Hasher turns a password into a stored hash and checks candidates against it.
type Hasher interface {
	Hash(password string) ([]byte, error)
	Verify(hash []byte, password string) bool
}

// NewHasher returns the hasher registered under name.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case "", HashBlake2b:
		return blake2bHasher{}, nil
	case HashBcrypt:
		return bcryptHasher{cost: bcryptCost}, nil
	default:
		return nil, fmt.Errorf("unknown password hash %q", name)
	}
}

type blake2bHasher struct{}

func (blake2bHasher) Hash(password string) ([]byte, error) {
	sum := blake2b.Sum256([]byte(password))
	return sum[:], nil
}

func (blake2bHasher) Verify(hash []byte, password string) bool {
	sum := blake2b.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(hash, sum[:]) == 1
}

type bcryptHasher struct {
	cost int
}

func (h bcryptHasher) Hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (bcryptHasher) Verify(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
