package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/jobboard/internal/apperror"
	"github.com/sakif/jobboard/internal/service"
)

// SessionHandler serves /api/session.
type SessionHandler struct {
	session *service.Session
	logger  *slog.Logger
}

func NewSessionHandler(session *service.Session, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{session: session, logger: logger}
}

// LoginRequest is the body of POST /api/session.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin logs in and returns the new identity.
//
// HTTP: POST /api/session
// REQUEST BODY: {"username": "alice", "password": "pw1"}
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.session.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, id)
}

// HandleCurrent returns the logged-in identity.
//
// HTTP: GET /api/session
func (h *SessionHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.session.Current()
	if !ok {
		writeError(w, apperror.NotAuthenticated("view the session"))
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// HandleLogout ends the session. Logging out twice is not an error.
//
// HTTP: DELETE /api/session
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
