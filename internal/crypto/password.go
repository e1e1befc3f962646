// Package crypto provides the password hashing primitives used by the
// authentication subsystem. All password material is stored as bcrypt
// digests; plaintext never leaves this package once converted.
package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultRounds is the bcrypt cost factor used when none is configured.
const DefaultRounds = 12

var (
	// ErrEmptyPassword is returned when hashing is attempted on an empty
	// plaintext.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrTypeConversion is returned when a value that is neither a hash nor
	// a plaintext string is offered to the password conversion path.
	ErrTypeConversion = errors.New("cannot convert value to a password hash")
)

// PasswordHash holds a bcrypt digest together with the cost factor it was
// (or will be) derived with. The zero value is an empty, unusable hash.
type PasswordHash struct {
	digest string
	rounds int
}

// New derives a fresh digest from plaintext with the given cost factor.
// A rounds value <= 0 selects DefaultRounds.
func New(plaintext string, rounds int) (PasswordHash, error) {
	if plaintext == "" {
		return PasswordHash{}, ErrEmptyPassword
	}
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	raw, err := bcrypt.GenerateFromPassword([]byte(plaintext), rounds)
	if err != nil {
		return PasswordHash{}, fmt.Errorf("bcrypt hash: %w", err)
	}
	return PasswordHash{digest: string(raw), rounds: rounds}, nil
}

// FromDigest wraps a pre-existing digest without re-hashing it. Used when
// rehydrating a stored value; round-trips preserve the digest byte for byte.
func FromDigest(digest string, rounds int) PasswordHash {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	return PasswordHash{digest: digest, rounds: rounds}
}

// Digest returns the stored digest string.
func (h PasswordHash) Digest() string { return h.digest }

// Rounds returns the cost factor associated with this hash.
func (h PasswordHash) Rounds() int { return h.rounds }

// IsZero reports whether the hash holds no digest.
func (h PasswordHash) IsZero() bool { return h.digest == "" }

// Verify checks candidate plaintext against the stored digest. A mismatch
// is a normal false result, never an error.
func (h PasswordHash) Verify(candidate string) bool {
	if h.digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.digest), []byte(candidate)) == nil
}

// Rehash derives a replacement hash for newPlaintext using this hash's cost
// factor and a fresh salt. The receiver is not mutated; the caller is
// responsible for persisting the returned value.
func (h PasswordHash) Rehash(newPlaintext string) (PasswordHash, error) {
	return New(newPlaintext, h.rounds)
}

// String implements fmt.Stringer without exposing the digest.
func (h PasswordHash) String() string { return "<PasswordHash>" }
