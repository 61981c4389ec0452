package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/jobboard/internal/apperror"
	"github.com/sakif/jobboard/internal/auth"
	"github.com/sakif/jobboard/internal/model"
	"github.com/sakif/jobboard/internal/service"
)

// JobHandler serves /api/jobs. Every route except HandleClearAll runs behind
// auth.RequireSession, so the acting user comes from the request context.
type JobHandler struct {
	jobs   *service.JobStore
	logger *slog.Logger
}

func NewJobHandler(jobs *service.JobStore, logger *slog.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, logger: logger}
}

// HandleCreate offers a job to one or more recipients.
//
// HTTP: POST /api/jobs
// REQUEST BODY: {"title":"T","description":"d","type":"x","estimatedValue":10,"recipients":["bob"]}
func (h *JobHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.NewJob
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	var creator *model.Identity
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		creator = &id
	}

	job, err := h.jobs.Create(r.Context(), creator, in)
	if err != nil {
		h.logger.Warn("job create rejected", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

// HandleList returns the jobs the current user created or received, in
// creation order, each with the user's own status.
//
// HTTP: GET /api/jobs
func (h *JobHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.NotAuthenticated("list jobs"))
		return
	}
	writeJSON(w, http.StatusOK, h.jobs.View(id))
}

// HandleAccept accepts the offer for the current user. The job's creator
// gets a notification.
//
// HTTP: POST /api/jobs/{id}/accept
func (h *JobHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusAccepted)
}

// HandleReject rejects the offer for the current user. The job stays.
//
// HTTP: POST /api/jobs/{id}/reject
func (h *JobHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusRejected)
}

func (h *JobHandler) setStatus(w http.ResponseWriter, r *http.Request, status model.RecipientStatus) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.NotAuthenticated("answer a job"))
		return
	}

	job, err := h.jobs.SetStatus(r.Context(), r.PathValue("id"), id.Username, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// HandleRemove deletes a job. Only its creator may.
//
// HTTP: DELETE /api/jobs/{id}
func (h *JobHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.NotAuthenticated("remove a job"))
		return
	}

	if err := h.jobs.Remove(r.Context(), r.PathValue("id"), id.ID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleClearAll deletes every job.
//
// HTTP: DELETE /api/jobs
func (h *JobHandler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.jobs.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
