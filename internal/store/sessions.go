package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/model"
)

// sessionTable maps model.Session onto the sessions table. The token is
// generated server-side at creation, as is the timestamp.
var sessionTable = Table[model.Session]{
	Name:    "sessions",
	PK:      "token",
	Columns: []string{"token", "user_id", "created_at"},
	Values: func(s *model.Session) []any {
		return []any{s.Token, s.UserID, s.CreatedAt}
	},
	PKValue: func(s *model.Session) any { return s.Token },
	Defaults: func(s *model.Session, now time.Time) {
		if s.Token == "" {
			s.Token = uuid.NewString()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
	},
}

// SessionStore is a thin specialization of the generic repository for login
// sessions, keyed by token.
type SessionStore struct {
	*Repository[model.Session]
}

// NewSessionStore creates a SessionStore backed by s.
func NewSessionStore(s *Store) *SessionStore {
	return &SessionStore{Repository: NewRepository(s, sessionTable)}
}

// GetByToken returns the session with the given token, or nil if none
// exists. Forged and expired tokens are expected traffic, so absence is
// never an error here.
func (ss *SessionStore) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	return ss.Get(ctx, ByPK(token))
}

// DeleteByToken removes the session with the given token. Idempotent: a
// token with no matching row is not an error.
func (ss *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	query := "DELETE FROM " + ss.d.Quote("sessions") + " WHERE " + ss.d.Quote("token") + " = " + ss.d.Placeholder(1)
	if _, err := ss.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("delete session by token: %w", err)
	}
	return nil
}
