package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wardenhq/warden/internal/auth"
)

// SessionCookie is the name of the cookie carrying the signed session state.
const SessionCookie = "warden_session"

var errBadCookie = errors.New("malformed or tampered session cookie")

// SessionCodec signs and verifies the session-state cookie. The cookie
// payload is the JSON-encoded auth.SessionState; the signature is
// HMAC-SHA256 over the payload. Tampered or malformed cookies decode to no
// state, which downstream guards treat as unauthenticated.
type SessionCodec struct {
	secret []byte
}

// NewSessionCodec creates a codec keyed by secret.
func NewSessionCodec(secret string) *SessionCodec {
	return &SessionCodec{secret: []byte(secret)}
}

// Encode serializes and signs a session state into cookie form.
func (c *SessionCodec) Encode(state *auth.SessionState) (string, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + c.sign(body), nil
}

// Decode verifies the signature and deserializes the state.
func (c *SessionCodec) Decode(value string) (*auth.SessionState, error) {
	body, sig, ok := strings.Cut(value, ".")
	if !ok {
		return nil, errBadCookie
	}
	if !hmac.Equal([]byte(c.sign(body)), []byte(sig)) {
		return nil, errBadCookie
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, errBadCookie
	}
	var state auth.SessionState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errBadCookie
	}
	return &state, nil
}

func (c *SessionCodec) sign(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// SetCookie writes the signed session state onto the response.
func (c *SessionCodec) SetCookie(w http.ResponseWriter, state *auth.SessionState) error {
	value, err := c.Encode(state)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the session cookie.
func (c *SessionCodec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionStateKey struct{}

// LoadSession decodes the session cookie, if any, into the request context.
// An absent or invalid cookie simply yields no state; authentication guards
// downstream decide whether that matters.
func LoadSession(codec *SessionCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				if state, err := codec.Decode(cookie.Value); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), sessionStateKey{}, state))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSessionState extracts the decoded session state from the context.
// Returns nil for an unauthenticated request.
func GetSessionState(ctx context.Context) *auth.SessionState {
	if state, ok := ctx.Value(sessionStateKey{}).(*auth.SessionState); ok {
		return state
	}
	return nil
}
