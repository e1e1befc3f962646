// Package model defines the persistent entities managed by warden and the
// column codecs that mediate between Go values and their stored form.
package model

import (
	"fmt"
	"time"

	"github.com/wardenhq/warden/internal/crypto"
)

// AccessLevel classifies users into a total order. Higher levels include
// every capability of the levels below them.
type AccessLevel int

const (
	LevelUser          AccessLevel = 0
	LevelSupport       AccessLevel = 1
	LevelModerator     AccessLevel = 2
	LevelAdministrator AccessLevel = 3
)

// String returns the lowercase name of the level.
func (l AccessLevel) String() string {
	switch l {
	case LevelUser:
		return "user"
	case LevelSupport:
		return "support"
	case LevelModerator:
		return "moderator"
	case LevelAdministrator:
		return "administrator"
	default:
		return fmt.Sprintf("access_level(%d)", int(l))
	}
}

// Valid reports whether l is one of the defined levels.
func (l AccessLevel) Valid() bool {
	return l >= LevelUser && l <= LevelAdministrator
}

// ParseAccessLevel resolves a level name or numeric tag to an AccessLevel.
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch s {
	case "user", "0":
		return LevelUser, nil
	case "support", "1":
		return LevelSupport, nil
	case "moderator", "2":
		return LevelModerator, nil
	case "administrator", "3":
		return LevelAdministrator, nil
	default:
		return 0, fmt.Errorf("unknown access level %q", s)
	}
}

// User is an account that can sign in to the admin API. The password column
// only ever holds a digest; see the Password codec.
type User struct {
	ID          int64       `json:"id" db:"id"`
	Username    string      `json:"username" db:"username"`
	Password    Password    `json:"-" db:"password"` // digest only, never expose
	AccessLevel AccessLevel `json:"access_level" db:"access_level"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// SetPassword runs value through the same conversion rules the persistence
// path uses, so in-memory assignment and column binding cannot diverge.
func (u *User) SetPassword(value crypto.PasswordInput) error {
	h, err := crypto.Convert(value, PasswordCost())
	if err != nil {
		return err
	}
	u.Password = NewPassword(h)
	return nil
}

// VerifyPassword checks a candidate plaintext against the stored digest.
func (u *User) VerifyPassword(candidate string) bool {
	return u.Password.Hash().Verify(candidate)
}
