package model

import (
	"database/sql/driver"
	"fmt"
	"sync/atomic"

	"github.com/wardenhq/warden/internal/crypto"
)

// passwordCost is the bcrypt cost the codec applies when rehydrating stored
// digests and when SetPassword hashes fresh plaintext. Process-wide, set
// once at startup from configuration.
var passwordCost atomic.Int32

func init() { passwordCost.Store(crypto.DefaultRounds) }

// SetPasswordCost configures the codec's cost factor. Values <= 0 are ignored.
func SetPasswordCost(rounds int) {
	if rounds > 0 {
		passwordCost.Store(int32(rounds))
	}
}

// PasswordCost returns the codec's configured cost factor.
func PasswordCost() int {
	return int(passwordCost.Load())
}

// Password is the column codec for password digests. On write only the
// digest string reaches the database; on read the stored digest is wrapped
// back into a PasswordHash at the configured cost. NULL maps to the invalid
// zero value in both directions. Writing an already-hashed value never
// re-hashes it.
type Password struct {
	hash  crypto.PasswordHash
	valid bool
}

// NewPassword wraps an existing hash for storage.
func NewPassword(h crypto.PasswordHash) Password {
	return Password{hash: h, valid: !h.IsZero()}
}

// Hash returns the wrapped PasswordHash (zero value if invalid).
func (p Password) Hash() crypto.PasswordHash { return p.hash }

// Valid reports whether a digest is present.
func (p Password) Valid() bool { return p.valid }

// Scan implements sql.Scanner.
func (p *Password) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = Password{}
		return nil
	case string:
		*p = Password{hash: crypto.FromDigest(v, PasswordCost()), valid: true}
		return nil
	case []byte:
		*p = Password{hash: crypto.FromDigest(string(v), PasswordCost()), valid: true}
		return nil
	default:
		return fmt.Errorf("scan password: %w: %T", crypto.ErrTypeConversion, src)
	}
}

// Value implements driver.Valuer.
func (p Password) Value() (driver.Value, error) {
	if !p.valid {
		return nil, nil
	}
	return p.hash.Digest(), nil
}

// String implements fmt.Stringer without exposing the digest.
func (p Password) String() string { return "<Password>" }
