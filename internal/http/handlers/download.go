package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"storybook/internal/domain"
)

// downloadLinkTTL is how long a minted download link stays valid.
const downloadLinkTTL = 15 * time.Minute

// DownloadOrder returns a download link for a completed order's PDF. Links
// for storage-resident PDFs are signed per request; an expired order gets
// 410 so the storefront can offer a re-purchase.
func (a *App) DownloadOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := a.Orders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		a.Logger.Error().Err(err).Str("order_id", id).Msg("handlers: load order")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load order")
		return
	}

	switch order.Status {
	case domain.OrderStatusCompleted:
	case domain.OrderStatusFailed, domain.OrderStatusRefunded:
		a.error(w, http.StatusConflict, "not_available", "this order has no downloadable book")
		return
	default:
		a.error(w, http.StatusConflict, "not_ready", "the book is still being generated")
		return
	}
	if order.ExpiresAt != nil && time.Now().After(*order.ExpiresAt) {
		a.error(w, http.StatusGone, "expired", "the download window for this order has closed")
		return
	}
	if order.PDFURL == "" {
		a.error(w, http.StatusConflict, "not_available", "this order has no downloadable book")
		return
	}

	downloadURL := order.PDFURL
	if !strings.Contains(downloadURL, "://") {
		// A bare value is a storage key, not a URL.
		signed, err := a.Blobs.SignedURL(r.Context(), downloadURL, downloadLinkTTL)
		if err != nil {
			a.Logger.Error().Err(err).Str("order_id", id).Msg("handlers: sign download url")
			a.error(w, http.StatusInternalServerError, "internal", "failed to create download link")
			return
		}
		downloadURL = signed
	}

	a.json(w, http.StatusOK, map[string]any{
		"order_id":     order.ID,
		"download_url": downloadURL,
		"expires_at":   order.ExpiresAt,
	})
}
