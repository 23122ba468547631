package image

import (
	"context"
	"time"
)

// FailureReason classifies why a generation call came back without an image.
// The preview pipeline treats all reasons the same; the post-payment pipeline
// surfaces them so the retry controller can report what went wrong.
type FailureReason string

const (
	ReasonServerFailure FailureReason = "server_failure"
	ReasonTimeout       FailureReason = "timeout"
	ReasonNoImage       FailureReason = "no_image"
	ReasonTransport     FailureReason = "transport"
)

// GenerateRequest describes a normalized request passed to an image provider.
// AnalyzedFeatures is the cached face description computed once per preview;
// it must be passed verbatim on every page call for visual consistency.
type GenerateRequest struct {
	Prompt           string
	FaceImageURL     string
	AnalyzedFeatures string
	AspectRatio      string
	Seed             int
	RequestID        string
}

// Outcome is the discriminated result of one generation call. Expected
// terminal failures (provider FAILED/CANCELLED, poll timeout, transport
// faults) are carried as a non-success Outcome, never as a Go error.
type Outcome struct {
	Success  bool
	ImageURL string
	Model    string
	Cost     float64
	Latency  time.Duration
	Reason   FailureReason
	Message  string
}

// Failure builds a non-success outcome.
func Failure(reason FailureReason, message string) Outcome {
	return Outcome{Reason: reason, Message: message}
}

// Generator is the contract implemented by image generation providers.
type Generator interface {
	// AnalyzeFace produces a short textual description of the subject's
	// face from a reference photo. Errors are returned so the caller can
	// decide on a fallback; this is the one provider call where the
	// pipeline substitutes a degraded value rather than failing.
	AnalyzeFace(ctx context.Context, photoURL string) (string, error)

	// Generate submits one page generation and waits for a terminal state.
	Generate(ctx context.Context, req GenerateRequest) Outcome
}
