package store

import (
	"context"
	"time"

	"github.com/wardenhq/warden/internal/model"
)

// userTable maps model.User onto the users table.
var userTable = Table[model.User]{
	Name:    "users",
	PK:      "id",
	Columns: []string{"username", "password", "access_level", "created_at", "updated_at"},
	Values: func(u *model.User) []any {
		return []any{u.Username, u.Password, int(u.AccessLevel), u.CreatedAt, u.UpdatedAt}
	},
	PKValue: func(u *model.User) any { return u.ID },
	AutoID:  true,
	SetID:   func(u *model.User, id int64) { u.ID = id },
	Defaults: func(u *model.User, now time.Time) {
		u.CreatedAt = now
		u.UpdatedAt = now
	},
}

// UserStore is a thin specialization of the generic repository that adds
// the named lookups the authentication backend needs.
type UserStore struct {
	*Repository[model.User]
}

// NewUserStore creates a UserStore backed by s.
func NewUserStore(s *Store) *UserStore {
	return &UserStore{Repository: NewRepository(s, userTable)}
}

// GetByUsername returns the user with the given username, or nil if none
// exists.
func (us *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return us.Get(ctx, Where(Eq("username", username)))
}
