// Package handler implements the HTTP endpoints of the admin API.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/internal/crypto"
	"github.com/wardenhq/warden/internal/model"
	"github.com/wardenhq/warden/internal/server/middleware"
	"github.com/wardenhq/warden/internal/store"
)

// maxPageSize caps the limit query parameter on list endpoints.
const maxPageSize = 100

// AdminHandler manages warden's own accounts and login sessions.
type AdminHandler struct {
	backend  *auth.Backend
	users    *store.UserStore
	sessions *store.SessionStore
	codec    *middleware.SessionCodec
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(backend *auth.Backend, users *store.UserStore, sessions *store.SessionStore, codec *middleware.SessionCodec) *AdminHandler {
	return &AdminHandler{
		backend:  backend,
		users:    users,
		sessions: sessions,
		codec:    codec,
	}
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// loginRequest is the expected payload for the Login endpoint.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response payload for a successful login. The session
// token itself travels in the signed cookie, not the body.
type loginResponse struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	AccessLevel string `json:"access_level"`
}

// Login authenticates a user and sets the signed session cookie.
// POST /api/v1/admin/session
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	state, err := h.backend.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Authentication error: "+err.Error())
		return
	}
	if state == nil {
		// Unknown user and wrong password are deliberately the same answer.
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.codec.SetCookie(w, state); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to establish session: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		UserID:      state.UserID,
		Username:    req.Username,
		AccessLevel: state.AccessLevel.String(),
	})
}

// Logout deletes the current session row and clears the cookie. Safe to call
// without an active session.
// DELETE /api/v1/admin/session
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSessionState(r.Context())
	if err := h.backend.Logout(r.Context(), state); err != nil {
		writeError(w, http.StatusInternalServerError, "Logout failed: "+err.Error())
		return
	}
	h.codec.ClearCookie(w)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session invalidated",
	})
}

// ---------------------------------------------------------------------------
// User management
// ---------------------------------------------------------------------------

// ListUsers returns a page of user accounts.
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", store.DefaultLimit), 1, maxPageSize)
	offset := clampInt(queryInt(r, "offset", 0), 0, int(^uint(0)>>1))

	users, err := h.users.GetAll(r.Context(),
		store.OrderBy(store.Order{Column: "id"}),
		store.Limit(limit),
		store.Offset(offset),
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users: "+err.Error())
		return
	}

	total, err := h.users.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count users: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: users,
		Meta: &model.ResponseMeta{
			Count:  len(users),
			Total:  &total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// createUserRequest is the expected payload for CreateUser.
type createUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	AccessLevel string `json:"access_level"`
}

// CreateUser creates a new user account.
// POST /api/v1/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}

	level := model.LevelUser
	if req.AccessLevel != "" {
		parsed, err := model.ParseAccessLevel(req.AccessLevel)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		level = parsed
	}

	// Check for a username collision before inserting.
	existing, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check username: "+err.Error())
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "User already exists: "+req.Username)
		return
	}

	user := &model.User{
		Username:    req.Username,
		AccessLevel: level,
	}
	if err := user.SetPassword(crypto.Plaintext(req.Password)); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid password: "+err.Error())
		return
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// GetUser returns a single user by ID.
// GET /api/v1/admin/users/{userID}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID: "+idStr)
		return
	}

	user, err := h.users.Get(r.Context(), store.ByPK(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user: "+err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found: "+idStr)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// updateUserRequest is the expected payload for UpdateUser. Nil fields are
// left unchanged.
type updateUserRequest struct {
	Username    *string `json:"username,omitempty"`
	Password    *string `json:"password,omitempty"`
	AccessLevel *string `json:"access_level,omitempty"`
}

// UpdateUser applies a partial update to a user account.
// PATCH /api/v1/admin/users/{userID}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID: "+idStr)
		return
	}

	var req updateUserRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	fields := store.Fields{}
	if req.Username != nil {
		if *req.Username == "" {
			writeError(w, http.StatusBadRequest, "Username cannot be empty")
			return
		}
		fields["username"] = *req.Username
	}
	if req.Password != nil {
		hash, err := crypto.Convert(crypto.Plaintext(*req.Password), model.PasswordCost())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid password: "+err.Error())
			return
		}
		fields["password"] = model.NewPassword(hash)
	}
	if req.AccessLevel != nil {
		level, err := model.ParseAccessLevel(*req.AccessLevel)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		fields["access_level"] = int(level)
	}

	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	fields["updated_at"] = time.Now().UTC()

	user, err := h.users.Update(r.Context(), id, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found: "+idStr)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update user: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user account. Its sessions go with it via the
// foreign key cascade.
// DELETE /api/v1/admin/users/{userID}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID: "+idStr)
		return
	}

	if _, err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found: "+idStr)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete user: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User deleted",
	})
}

// ---------------------------------------------------------------------------
// Session management
// ---------------------------------------------------------------------------

// ListSessions returns a page of active login sessions, newest first.
// GET /api/v1/admin/sessions
func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", store.DefaultLimit), 1, maxPageSize)
	offset := clampInt(queryInt(r, "offset", 0), 0, int(^uint(0)>>1))

	sessions, err := h.sessions.GetAll(r.Context(),
		store.OrderBy(store.Order{Column: "created_at", Desc: true}),
		store.Limit(limit),
		store.Offset(offset),
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions: "+err.Error())
		return
	}

	total, err := h.sessions.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count sessions: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: sessions,
		Meta: &model.ResponseMeta{
			Count:  len(sessions),
			Total:  &total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// DeleteSession revokes a session by token, forcing that client to log in
// again. Idempotent.
// DELETE /api/v1/admin/sessions/{token}
func (h *AdminHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.sessions.DeleteByToken(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete session: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session revoked",
	})
}

// ---------------------------------------------------------------------------
// Overview
// ---------------------------------------------------------------------------

// Overview reports account and session totals. Available to support staff
// and above.
// GET /api/v1/admin/overview
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userCount, err := h.users.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count users: "+err.Error())
		return
	}
	sessionCount, err := h.sessions.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count sessions: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":    userCount,
		"sessions": sessionCount,
	})
}
