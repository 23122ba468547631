package domain

import (
	"context"
	"time"
)

// PreviewUpdate carries a partial-field merge for a preview record. Nil
// fields are left untouched, so concurrent writers updating disjoint fields
// do not clobber each other.
type PreviewUpdate struct {
	Status           *PreviewStatus
	Phase            *GenerationPhase
	AnalyzedFeatures *string
	CoverURL         *string
	Pages            []PageResult
	PDFURL           *string
	PreviewPageCount *int
	TotalPageCount   *int
}

// JobUpdate carries a partial-field merge for a job record.
type JobUpdate struct {
	Status       *JobStatus
	Progress     *int
	CurrentStep  *string
	ErrorMessage *string
	ResultJSON   []byte
	Attempts     *int
}

// OrderUpdate carries a partial-field merge for an order record.
type OrderUpdate struct {
	Status       *OrderStatus
	RetryCount   *int
	ErrorMessage *string
	PDFURL       *string
	ExpiresAt    *time.Time
}

// PreviewRepository defines persistence for preview aggregates.
type PreviewRepository interface {
	Create(ctx context.Context, preview *Preview) error
	GetByID(ctx context.Context, id string) (*Preview, error)
	Update(ctx context.Context, id string, upd PreviewUpdate) error
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

// JobRepository defines persistence for job progress records.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, id string, upd JobUpdate) error
}

// OrderRepository defines persistence for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, id string, upd OrderUpdate) error
}
