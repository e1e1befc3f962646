package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/internal/model"
)

func TestSessionCodecRoundTrip(t *testing.T) {
	codec := NewSessionCodec("test-secret")

	state := &auth.SessionState{
		UserID:      42,
		Token:       "abc-123",
		AccessLevel: model.LevelAdministrator,
	}

	value, err := codec.Encode(state)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := codec.Decode(value)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *decoded != *state {
		t.Errorf("got %+v, want %+v", decoded, state)
	}
}

func TestSessionCodecRejectsTampering(t *testing.T) {
	codec := NewSessionCodec("test-secret")
	state := &auth.SessionState{UserID: 1, Token: "t", AccessLevel: model.LevelUser}

	value, err := codec.Encode(state)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Flip a character in the payload.
	tampered := "A" + value[1:]
	if _, err := codec.Decode(tampered); err == nil {
		t.Error("expected error for tampered payload")
	}

	// Signature from a different key.
	other := NewSessionCodec("other-secret")
	otherValue, _ := other.Encode(state)
	if _, err := codec.Decode(otherValue); err == nil {
		t.Error("expected error for foreign signature")
	}

	// Garbage.
	if _, err := codec.Decode("not-a-cookie"); err == nil {
		t.Error("expected error for malformed value")
	}
}

func TestLoadSession(t *testing.T) {
	codec := NewSessionCodec("test-secret")
	state := &auth.SessionState{UserID: 7, Token: "tok", AccessLevel: model.LevelSupport}

	var got *auth.SessionState
	handler := LoadSession(codec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSessionState(r.Context())
	}))

	// Valid cookie.
	value, _ := codec.Encode(state)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: value})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || *got != *state {
		t.Errorf("got %+v, want %+v", got, state)
	}

	// No cookie.
	got = nil
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != nil {
		t.Errorf("got %+v, want nil without cookie", got)
	}

	// Tampered cookie decodes to no state.
	got = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "A" + value[1:]})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != nil {
		t.Errorf("got %+v, want nil for tampered cookie", got)
	}
}

func TestSetAndClearCookie(t *testing.T) {
	codec := NewSessionCodec("test-secret")
	state := &auth.SessionState{UserID: 1, Token: "tok", AccessLevel: model.LevelUser}

	rec := httptest.NewRecorder()
	if err := codec.SetCookie(rec, state); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	set := rec.Header().Get("Set-Cookie")
	if !strings.Contains(set, SessionCookie+"=") {
		t.Errorf("got Set-Cookie %q", set)
	}
	if !strings.Contains(set, "HttpOnly") {
		t.Errorf("cookie must be HttpOnly: %q", set)
	}

	rec = httptest.NewRecorder()
	codec.ClearCookie(rec)
	cleared := rec.Header().Get("Set-Cookie")
	if !strings.Contains(cleared, "Max-Age=0") {
		t.Errorf("got Set-Cookie %q, want expiry", cleared)
	}
}

func TestRequireLevel(t *testing.T) {
	codec := NewSessionCodec("test-secret")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	serve := func(required, actual model.AccessLevel) int {
		state := &auth.SessionState{UserID: 1, Token: "tok", AccessLevel: actual}
		value, _ := codec.Encode(state)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: value})
		rec := httptest.NewRecorder()
		LoadSession(codec)(RequireLevel(required)(next)).ServeHTTP(rec, req)
		return rec.Code
	}

	if code := serve(model.LevelAdministrator, model.LevelAdministrator); code != http.StatusNoContent {
		t.Errorf("administrator: got %d", code)
	}
	if code := serve(model.LevelSupport, model.LevelModerator); code != http.StatusNoContent {
		t.Errorf("higher level: got %d", code)
	}
	if code := serve(model.LevelAdministrator, model.LevelModerator); code != http.StatusForbidden {
		t.Errorf("insufficient level: got %d, want 403", code)
	}

	// No session state at all is forbidden too.
	rec := httptest.NewRecorder()
	RequireLevel(model.LevelUser)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("no state: got %d, want 403", rec.Code)
	}
}
