package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storybook/internal/domain"
)

type jobStatusResponse struct {
	ID          string          `json:"id"`
	TargetID    string          `json:"target_id"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"current_step"`
	Error       string          `json:"error,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// GetJob returns the progress of a generation job. This is the endpoint the
// storefront polls while a book is being produced.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := a.Jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", id).Msg("handlers: load job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	resp := jobStatusResponse{
		ID:          job.ID,
		TargetID:    job.TargetID,
		Status:      string(job.Status),
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.ErrorMessage,
	}
	if len(job.ResultJSON) > 0 {
		resp.Result = json.RawMessage(job.ResultJSON)
	}
	a.json(w, http.StatusOK, resp)
}
