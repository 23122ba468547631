// Package pipeline contains the generation orchestrator: the preview run
// that produces the first pages of a book, and the post-payment completion
// run that fills in the rest and assembles the PDF.
package pipeline

import (
	"context"
	"time"

	"storybook/internal/pdf"
)

// BlobStore is the slice of object storage the pipeline needs: copying a
// provider-hosted image into durable storage, and minting download links.
type BlobStore interface {
	DownloadAndStore(ctx context.Context, sourceURL, key string) (string, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PDFAssembler produces the full-book PDF from finished pages.
type PDFAssembler interface {
	Generate(ctx context.Context, req pdf.Request) (string, error)
}

// Notifier sends customer emails. Implementations must be safe to call with
// failures tolerated; the pipeline only logs notification errors.
type Notifier interface {
	SendPreviewReady(ctx context.Context, toEmail, childName, previewURL string) error
	SendBookReady(ctx context.Context, toEmail, childName, title, downloadURL string) error
}

// Config carries the tunables the orchestrator reads per run.
type Config struct {
	PreviewPages int
	TotalPages   int
	MaxRetries   int
	FrontendURL  string
	PreviewTTL   time.Duration
}
