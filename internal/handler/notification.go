package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/jobboard/internal/apperror"
	"github.com/sakif/jobboard/internal/auth"
	"github.com/sakif/jobboard/internal/service"
)

// NotificationHandler serves /api/notifications for the current user.
// Nobody can read or clear another user's list: the owner is always the
// identity in the request context.
type NotificationHandler struct {
	notifications *service.NotificationSink
	logger        *slog.Logger
}

func NewNotificationHandler(notifications *service.NotificationSink, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// HTTP: GET /api/notifications
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.NotAuthenticated("view notifications"))
		return
	}

	list, err := h.notifications.List(r.Context(), id.Username)
	if err != nil {
		h.logger.Error("failed to load notifications",
			slog.String("owner", id.Username),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// HTTP: DELETE /api/notifications
func (h *NotificationHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.NotAuthenticated("clear notifications"))
		return
	}

	if err := h.notifications.Clear(r.Context(), id.Username); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
