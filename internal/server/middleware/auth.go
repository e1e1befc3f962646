package middleware

import (
	"net/http"

	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/internal/model"
)

// Authenticate validates the request's session state against the session
// store. It must run after LoadSession. Requests with no state, an unknown
// token, or a user mismatch get a 401; the state is never trusted on its
// own because the cookie may outlive the session row.
func Authenticate(backend *auth.Backend) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := GetSessionState(r.Context())

			ok, err := backend.Authenticate(r.Context(), state)
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, "Authentication unavailable")
				return
			}
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLevel enforces a minimum access level. It must run after
// Authenticate in the middleware chain.
func RequireLevel(required model.AccessLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := GetSessionState(r.Context())
			if state == nil || !auth.IsAuthorized(required, state.AccessLevel) {
				writeAuthError(w, http.StatusForbidden, required.String()+" access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Manually construct JSON to avoid an import cycle with the handler
	// package.
	w.Write([]byte(`{"error":{"code":` + httpStatusString(status) + `,"message":"` + message + `"}}`))
}

func httpStatusString(code int) string {
	switch code {
	case 401:
		return "401"
	case 403:
		return "403"
	default:
		return "500"
	}
}
