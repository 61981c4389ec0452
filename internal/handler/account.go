// Package handler contains the HTTP request handlers: a thin JSON adapter
// over the account store, session, job store and notification sink.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path values, query, body)
// 2. Call exactly one core operation (two for the cascading clears)
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers contain no business rules. Every decision that can fail is made
// in package service and comes back as an apperror.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/jobboard/internal/apperror"
	"github.com/sakif/jobboard/internal/service"
)

// AccountHandler serves /api/accounts.
type AccountHandler struct {
	accounts *service.AccountStore
	session  *service.Session
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler. session is needed only for
// HandleClearAll, which also ends the session.
func NewAccountHandler(accounts *service.AccountStore, session *service.Session, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, session: session, logger: logger}
}

// HandleCreate registers a new account.
//
// HTTP: POST /api/accounts
// REQUEST BODY: {"username","password","confirmPassword","name","gender","age",
// and for non-male accounts "bust","waist","hips","braSize"}
func (h *AccountHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.NewAccount
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accounts.Create(r.Context(), in)
	if err != nil {
		h.logger.Warn("account create rejected", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account.Summary())
}

// HandleSearch lists accounts matching ?q= by username or name.
//
// HTTP: GET /api/accounts?q=bo
func (h *AccountHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.accounts.Search(r.URL.Query().Get("q")))
}

// HandleGetByID returns one account's public profile.
//
// HTTP: GET /api/accounts/{id}
func (h *AccountHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	account, ok := h.accounts.FindByID(id)
	if !ok {
		writeError(w, apperror.NotFound("account", id))
		return
	}

	writeJSON(w, http.StatusOK, account.Summary())
}

// HandleClearAll deletes every account and ends the session, so no request
// keeps acting as an account that no longer exists.
//
// HTTP: DELETE /api/accounts
func (h *AccountHandler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := h.session.Logout(r.Context()); err != nil {
		h.logger.Error("accounts cleared but session kept", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
