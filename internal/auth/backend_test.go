package auth

import (
	"context"
	"testing"

	"github.com/wardenhq/warden/internal/crypto"
	"github.com/wardenhq/warden/internal/model"
	"github.com/wardenhq/warden/internal/store"
)

func init() {
	model.SetPasswordCost(4)
}

func newTestBackend(t *testing.T) (*Backend, *store.Store) {
	t.Helper()
	s, err := store.Open(store.Config{
		Driver:       "sqlite",
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	users := store.NewUserStore(s)
	sessions := store.NewSessionStore(s)
	return NewBackend(users, sessions, nil), s
}

func createUser(t *testing.T, b *Backend, username, password string, level model.AccessLevel) *model.User {
	t.Helper()
	u := &model.User{Username: username, AccessLevel: level}
	if err := u.SetPassword(crypto.Plaintext(password)); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := b.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return u
}

func TestLoginSuccess(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	u := createUser(t, b, "alice", "hunter2", model.LevelModerator)

	state, err := b.Login(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if state == nil {
		t.Fatal("expected session state")
	}
	if state.UserID != u.ID {
		t.Errorf("got user ID %d, want %d", state.UserID, u.ID)
	}
	if state.AccessLevel != model.LevelModerator {
		t.Errorf("got access level %v, want moderator", state.AccessLevel)
	}
	if state.Token == "" {
		t.Error("expected a session token")
	}

	// Exactly one session row exists.
	n, err := b.Sessions().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d session rows, want 1", n)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	createUser(t, b, "alice", "hunter2", model.LevelUser)

	// Wrong password.
	state, err := b.Login(ctx, "alice", "wrong")
	if err != nil {
		t.Fatalf("Login wrong password: %v", err)
	}
	if state != nil {
		t.Error("expected nil state for wrong password")
	}

	// Unknown user.
	state, err = b.Login(ctx, "mallory", "hunter2")
	if err != nil {
		t.Fatalf("Login unknown user: %v", err)
	}
	if state != nil {
		t.Error("expected nil state for unknown user")
	}

	// Neither failure leaves a session behind.
	n, err := b.Sessions().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d session rows, want 0", n)
	}
}

func TestAuthenticate(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	createUser(t, b, "alice", "hunter2", model.LevelUser)

	state, err := b.Login(ctx, "alice", "hunter2")
	if err != nil || state == nil {
		t.Fatalf("Login: state=%v err=%v", state, err)
	}

	ok, err := b.Authenticate(ctx, state)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ok {
		t.Fatal("expected live session to authenticate")
	}

	// Nil and tokenless states never authenticate.
	if ok, _ := b.Authenticate(ctx, nil); ok {
		t.Error("nil state authenticated")
	}
	if ok, _ := b.Authenticate(ctx, &SessionState{UserID: state.UserID}); ok {
		t.Error("tokenless state authenticated")
	}

	// A forged token is normal traffic, not an error.
	ok, err = b.Authenticate(ctx, &SessionState{UserID: state.UserID, Token: "forged"})
	if err != nil {
		t.Fatalf("Authenticate forged: %v", err)
	}
	if ok {
		t.Error("forged token authenticated")
	}

	// A valid token paired with the wrong user must not pass.
	ok, err = b.Authenticate(ctx, &SessionState{UserID: state.UserID + 1, Token: state.Token})
	if err != nil {
		t.Fatalf("Authenticate mismatched user: %v", err)
	}
	if ok {
		t.Error("mismatched user authenticated")
	}
}

func TestLogout(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	createUser(t, b, "alice", "hunter2", model.LevelUser)

	state, err := b.Login(ctx, "alice", "hunter2")
	if err != nil || state == nil {
		t.Fatalf("Login: state=%v err=%v", state, err)
	}

	if err := b.Logout(ctx, state); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	ok, err := b.Authenticate(ctx, state)
	if err != nil {
		t.Fatalf("Authenticate after logout: %v", err)
	}
	if ok {
		t.Error("state authenticated after logout")
	}

	// Logging out again, or with no state at all, is fine.
	if err := b.Logout(ctx, state); err != nil {
		t.Errorf("second Logout: %v", err)
	}
	if err := b.Logout(ctx, nil); err != nil {
		t.Errorf("nil Logout: %v", err)
	}
}

func TestIsAuthorized(t *testing.T) {
	cases := []struct {
		required model.AccessLevel
		actual   model.AccessLevel
		want     bool
	}{
		{model.LevelUser, model.LevelUser, true},
		{model.LevelUser, model.LevelAdministrator, true},
		{model.LevelSupport, model.LevelUser, false},
		{model.LevelSupport, model.LevelSupport, true},
		{model.LevelModerator, model.LevelSupport, false},
		{model.LevelAdministrator, model.LevelAdministrator, true},
		{model.LevelAdministrator, model.LevelModerator, false},
	}
	for _, tc := range cases {
		if got := IsAuthorized(tc.required, tc.actual); got != tc.want {
			t.Errorf("IsAuthorized(%v, %v) = %v, want %v", tc.required, tc.actual, got, tc.want)
		}
	}
}
