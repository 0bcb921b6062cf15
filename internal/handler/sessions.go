package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/ordering/internal/auth"
	"github.com/kiwari-pos/ordering/internal/enum"
	"github.com/kiwari-pos/ordering/internal/middleware"
)

// SessionStore defines the registry methods needed by session handlers.
// Satisfied by *session.Registry.
type SessionStore interface {
	Drop(sessionID uuid.UUID)
}

// SessionHandler opens ordering sessions and hands out their tokens.
type SessionHandler struct {
	sessions  SessionStore
	jwtSecret string
	ttl       time.Duration
	now       func() time.Time
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionStore, jwtSecret string, ttl time.Duration) *SessionHandler {
	return &SessionHandler{sessions: sessions, jwtSecret: jwtSecret, ttl: ttl, now: time.Now}
}

// RegisterRoutes registers public session endpoints on the given Chi router.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.Create)
}

// RegisterAuthedRoutes registers endpoints that act on the caller's own
// session. Mount behind middleware.Authenticate.
func (h *SessionHandler) RegisterAuthedRoutes(r chi.Router) {
	r.Delete("/sessions/current", h.End)
}

type createSessionRequest struct {
	Role string `json:"role"`
}

type sessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create starts a new session. The body is optional; role defaults to GUEST.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := req.Role
	switch role {
	case "":
		role = enum.SessionRoleGuest
	case enum.SessionRoleGuest, enum.SessionRoleCashier:
	default:
		writeError(w, http.StatusBadRequest, "role must be GUEST or CASHIER")
		return
	}

	sessionID := uuid.New()
	expiresAt := h.now().Add(h.ttl)
	token, err := auth.GenerateSessionToken(h.jwtSecret, sessionID, role, h.ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sessionID,
		Token:     token,
		Role:      role,
		ExpiresAt: expiresAt,
	})
}

// End discards the caller's live cart. The last snapshot stays in the
// store, so the token can still restore it until it expires.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	h.sessions.Drop(middleware.SessionFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
