package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wardenhq/warden/internal/model"
	"github.com/wardenhq/warden/internal/store"
)

// SessionState is the request-local authenticated state. The transport layer
// owns its storage (a signed cookie); the backend only populates and checks
// it. All three fields come from the session row and user at login.
type SessionState struct {
	UserID      int64             `json:"user_id"`
	Token       string            `json:"token"`
	AccessLevel model.AccessLevel `json:"access_level"`
}

// Backend orchestrates login, logout, and per-request authentication
// against the user and session stores.
type Backend struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

// NewBackend creates a Backend over the given stores.
func NewBackend(users *store.UserStore, sessions *store.SessionStore, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{users: users, sessions: sessions, logger: logger}
}

// Users returns the user store the backend authenticates against.
func (b *Backend) Users() *store.UserStore { return b.users }

// Sessions returns the session store the backend issues tokens into.
func (b *Backend) Sessions() *store.SessionStore { return b.sessions }

// Login verifies the credentials and, on success, creates exactly one new
// session row and returns the state to hand to the transport layer. A
// missing user and a wrong password are indistinguishable: both return
// (nil, nil) with no session created. Only store failures are errors.
func (b *Backend) Login(ctx context.Context, username, password string) (*SessionState, error) {
	user, err := b.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("login lookup: %w", err)
	}
	if user == nil || !user.VerifyPassword(password) {
		return nil, nil
	}

	session := &model.Session{UserID: user.ID}
	if err := b.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	b.logger.Info("login", "user_id", user.ID, "username", user.Username)
	return &SessionState{
		UserID:      session.UserID,
		Token:       session.Token,
		AccessLevel: user.AccessLevel,
	}, nil
}

// Logout deletes the session row matching the state's token. Idempotent:
// succeeds whether or not a row existed. The caller clears the transport's
// copy of the state afterwards.
func (b *Backend) Logout(ctx context.Context, state *SessionState) error {
	if state == nil || state.Token == "" {
		return nil
	}
	if err := b.sessions.DeleteByToken(ctx, state.Token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	b.logger.Info("logout", "user_id", state.UserID)
	return nil
}

// Authenticate is the guard evaluated on every authenticated request. It
// reports false for a nil or tokenless state, for an unknown token, and for
// a session row whose user does not match the state (a stale state pointing
// at a reissued token must not pass). Absence is normal traffic, never an
// error; only store failures return one.
func (b *Backend) Authenticate(ctx context.Context, state *SessionState) (bool, error) {
	if state == nil || state.Token == "" {
		return false, nil
	}

	session, err := b.sessions.GetByToken(ctx, state.Token)
	if err != nil {
		return false, fmt.Errorf("authenticate lookup: %w", err)
	}
	if session == nil || session.UserID != state.UserID {
		return false, nil
	}
	return true, nil
}
