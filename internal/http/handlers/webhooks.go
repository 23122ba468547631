package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"storybook/internal/domain"
)

const signatureHeader = "X-Webhook-Signature"

// maxWebhookBody bounds the payload we are willing to verify.
const maxWebhookBody = 64 * 1024

type paymentWebhookPayload struct {
	Event         string `json:"event"`
	OrderID       string `json:"order_id"`
	PreviewID     string `json:"preview_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
}

// PaymentWebhook handles payment-provider callbacks. A verified
// payment.succeeded event creates the order exactly once and starts the
// full-book run; redelivered events are acknowledged without side effects.
func (a *App) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable payload")
		return
	}
	if !a.verifySignature(body, r.Header.Get(signatureHeader)) {
		a.error(w, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
		return
	}

	var payload paymentWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if payload.Event != "payment.succeeded" {
		// Other events are acknowledged so the provider stops redelivering.
		a.json(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if payload.OrderID == "" || payload.PreviewID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "order_id and preview_id are required")
		return
	}

	preview, err := a.Previews.GetByID(r.Context(), payload.PreviewID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "preview not found")
			return
		}
		a.Logger.Error().Err(err).Str("preview_id", payload.PreviewID).Msg("handlers: load preview for webhook")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load preview")
		return
	}
	switch preview.Status {
	case domain.PreviewStatusActive, domain.PreviewStatusPurchased:
	case domain.PreviewStatusExpired:
		a.error(w, http.StatusConflict, "expired", "this preview has expired and cannot be purchased")
		return
	default:
		a.error(w, http.StatusConflict, "not_purchasable", "preview is not in a purchasable state")
		return
	}

	order := &domain.Order{
		ID:            payload.OrderID,
		PreviewID:     payload.PreviewID,
		CustomerEmail: payload.CustomerEmail,
		CustomerName:  payload.CustomerName,
		Status:        domain.OrderStatusPaid,
		CreatedAt:     time.Now().UTC(),
	}
	if err := a.Orders.Create(r.Context(), order); err != nil {
		if errors.Is(err, domain.ErrDuplicateOrder) {
			a.json(w, http.StatusOK, map[string]string{"status": "already_processed", "order_id": order.ID})
			return
		}
		a.Logger.Error().Err(err).Str("order_id", order.ID).Msg("handlers: create order")
		a.error(w, http.StatusInternalServerError, "internal", "failed to record the order")
		return
	}

	status := domain.PreviewStatusPurchased
	if err := a.Previews.Update(r.Context(), preview.ID, domain.PreviewUpdate{Status: &status}); err != nil {
		a.Logger.Error().Err(err).Str("preview_id", preview.ID).Msg("handlers: mark preview purchased")
	}

	job := &domain.Job{
		ID:          uuid.NewString(),
		TargetID:    order.ID,
		Status:      domain.JobStatusQueued,
		CurrentStep: "Waiting to start",
		MaxAttempts: a.Config.MaxCompletionRetries,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Str("order_id", order.ID).Msg("handlers: create completion job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue book completion")
		return
	}

	orderID, jobID := order.ID, job.ID
	a.Dispatcher.Dispatch("complete:"+orderID, func(ctx context.Context) {
		a.Orchestrator.CompleteBook(ctx, orderID, jobID)
	})

	a.json(w, http.StatusOK, map[string]string{
		"status":   "accepted",
		"order_id": orderID,
		"job_id":   jobID,
	})
}

// verifySignature checks the hex HMAC-SHA256 of the raw body against the
// shared webhook secret in constant time.
func (a *App) verifySignature(body []byte, signature string) bool {
	if a.Config.WebhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(a.Config.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
