// Package handlers holds the HTTP endpoints of the storybook API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"storybook/internal/domain"
	"storybook/internal/infra"
	"storybook/internal/pipeline"
	"storybook/internal/stories"
)

// Runner starts generation runs. Implemented by pipeline.Orchestrator.
type Runner interface {
	RunPreview(ctx context.Context, previewID, jobID string)
	CompleteBook(ctx context.Context, orderID, jobID string)
}

// Dispatcher hands work to the background pool.
type Dispatcher interface {
	Dispatch(name string, fn func(ctx context.Context))
}

// App carries the dependencies shared by all handlers.
type App struct {
	Previews     domain.PreviewRepository
	Jobs         domain.JobRepository
	Orders       domain.OrderRepository
	Themes       *stories.Registry
	Orchestrator Runner
	Dispatcher   Dispatcher
	Blobs        pipeline.BlobStore
	Config       *infra.Config
	Logger       infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
