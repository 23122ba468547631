package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storybook/internal/domain"
	"storybook/internal/stories"
)

type createPreviewRequest struct {
	ChildName        string `json:"child_name"`
	ChildAge         int    `json:"child_age"`
	ChildGender      string `json:"child_gender"`
	PhotoURL         string `json:"photo_url"`
	Theme            string `json:"theme"`
	Style            string `json:"style"`
	Seed             int    `json:"seed"`
	CustomerEmail    string `json:"customer_email"`
	NotifyOnComplete bool   `json:"notify_on_complete"`
}

type previewAcceptedResponse struct {
	PreviewID string `json:"preview_id"`
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
}

// CreatePreview accepts a book request, records the preview and its progress
// job, and hands the generation run to the background dispatcher. The
// response returns immediately; clients poll the job for progress.
func (a *App) CreatePreview(w http.ResponseWriter, r *http.Request) {
	var req createPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.PhotoURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "photo_url is required")
		return
	}
	if u, err := url.Parse(req.PhotoURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		a.error(w, http.StatusBadRequest, "bad_request", "photo_url must be an http(s) url")
		return
	}
	if _, err := a.Themes.Get(req.Theme); err != nil {
		a.error(w, http.StatusBadRequest, "unknown_theme", "unknown story theme")
		return
	}

	now := time.Now().UTC()
	preview := &domain.Preview{
		ID: uuid.NewString(),
		Request: domain.BookRequest{
			ChildName:   stories.SanitizeChildName(req.ChildName),
			ChildAge:    req.ChildAge,
			ChildGender: req.ChildGender,
			PhotoURL:    req.PhotoURL,
			Theme:       req.Theme,
			Style:       req.Style,
			Seed:        req.Seed,
		},
		Status:           domain.PreviewStatusGenerating,
		Phase:            domain.PhasePreview,
		CustomerEmail:    req.CustomerEmail,
		NotifyOnComplete: req.NotifyOnComplete && req.CustomerEmail != "",
		PreviewPageCount: a.Config.PreviewPages,
		TotalPageCount:   a.Config.TotalPages,
		CreatedAt:        now,
		ExpiresAt:        now.Add(a.Config.PreviewTTL),
	}
	if err := a.Previews.Create(r.Context(), preview); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: create preview")
		a.error(w, http.StatusInternalServerError, "internal", "failed to record the request")
		return
	}

	job := &domain.Job{
		ID:          uuid.NewString(),
		TargetID:    preview.ID,
		Status:      domain.JobStatusQueued,
		CurrentStep: "Waiting to start",
		MaxAttempts: 1,
		CreatedAt:   now,
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: create preview job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue generation")
		return
	}

	previewID, jobID := preview.ID, job.ID
	a.Dispatcher.Dispatch("preview:"+previewID, func(ctx context.Context) {
		a.Orchestrator.RunPreview(ctx, previewID, jobID)
	})

	a.json(w, http.StatusAccepted, previewAcceptedResponse{
		PreviewID: previewID,
		JobID:     jobID,
		Status:    string(domain.JobStatusQueued),
	})
}

type previewPageResponse struct {
	Page      int    `json:"page"`
	ImageURL  string `json:"image_url"`
	StoryText string `json:"story_text"`
}

type previewResponse struct {
	ID        string                `json:"id"`
	Status    string                `json:"status"`
	Phase     string                `json:"phase"`
	Theme     string                `json:"theme"`
	Title     string                `json:"title"`
	ChildName string                `json:"child_name"`
	CoverURL  string                `json:"cover_url,omitempty"`
	Pages     []previewPageResponse `json:"pages"`
	PDFURL    string                `json:"pdf_url,omitempty"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// GetPreview returns the customer-facing view of a preview. Until the book
// is purchased only the preview pages are exposed, through their preview
// image URLs; the full-resolution pages and the PDF appear after purchase.
func (a *App) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	preview, err := a.Previews.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "preview not found")
			return
		}
		a.Logger.Error().Err(err).Str("preview_id", id).Msg("handlers: load preview")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load preview")
		return
	}
	if preview.Status == domain.PreviewStatusExpired {
		a.error(w, http.StatusGone, "expired", "this preview has expired")
		return
	}

	theme, err := a.Themes.Get(preview.Request.Theme)
	if err != nil {
		a.Logger.Error().Err(err).Str("preview_id", id).Msg("handlers: preview references unknown theme")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load preview")
		return
	}

	purchased := preview.Status == domain.PreviewStatusPurchased
	resp := previewResponse{
		ID:        preview.ID,
		Status:    string(preview.Status),
		Phase:     string(preview.Phase),
		Theme:     preview.Request.Theme,
		Title:     theme.Title(preview.Request.ChildName),
		ChildName: preview.Request.ChildName,
		CoverURL:  preview.CoverURL,
		Pages:     []previewPageResponse{},
		ExpiresAt: preview.ExpiresAt,
	}
	for _, p := range preview.Pages {
		if !purchased && p.Page > preview.PreviewPageCount {
			continue
		}
		img := p.PreviewURL
		if purchased || img == "" {
			img = p.ImageURL
		}
		resp.Pages = append(resp.Pages, previewPageResponse{
			Page:      p.Page,
			ImageURL:  img,
			StoryText: p.StoryText,
		})
	}
	if purchased {
		resp.PDFURL = preview.PDFURL
	}
	a.json(w, http.StatusOK, resp)
}

type themeResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Pages       int    `json:"pages"`
}

// ListThemes returns the available story themes.
func (a *App) ListThemes(w http.ResponseWriter, r *http.Request) {
	var out []themeResponse
	for _, id := range a.Themes.IDs() {
		t, err := a.Themes.Get(id)
		if err != nil {
			continue
		}
		out = append(out, themeResponse{
			ID:          t.ID,
			Title:       t.Title("{name}"),
			Description: t.Description,
			Pages:       len(t.Pages),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"themes": out})
}
