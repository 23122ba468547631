package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storybook/internal/domain"
)

// PreviewRepositoryPG implements domain.PreviewRepository.
type PreviewRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPreviewRepository creates a preview repository backed by PostgreSQL.
func NewPreviewRepository(pool *pgxpool.Pool) *PreviewRepositoryPG {
	return &PreviewRepositoryPG{pool: pool}
}

// Create inserts a new preview record.
func (r *PreviewRepositoryPG) Create(ctx context.Context, p *domain.Preview) error {
	request, err := json.Marshal(p.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	pages, err := json.Marshal(p.Pages)
	if err != nil {
		return fmt.Errorf("encode pages: %w", err)
	}
	query := `
INSERT INTO previews (id, request, analyzed_features, cover_url, pages, status, phase, pdf_url,
                      customer_email, notify_on_complete, preview_page_count, total_page_count, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
`
	_, err = r.pool.Exec(ctx, query,
		p.ID,
		request,
		p.AnalyzedFeatures,
		p.CoverURL,
		pages,
		p.Status,
		p.Phase,
		p.PDFURL,
		p.CustomerEmail,
		p.NotifyOnComplete,
		p.PreviewPageCount,
		p.TotalPageCount,
		p.ExpiresAt,
	)
	return err
}

// GetByID fetches a preview by its identifier.
func (r *PreviewRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Preview, error) {
	query := `
SELECT id, request, analyzed_features, cover_url, pages, status, phase, pdf_url,
       customer_email, notify_on_complete, preview_page_count, total_page_count, created_at, expires_at
FROM previews
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	var (
		p       domain.Preview
		request []byte
		pages   []byte
	)
	if err := row.Scan(
		&p.ID,
		&request,
		&p.AnalyzedFeatures,
		&p.CoverURL,
		&pages,
		&p.Status,
		&p.Phase,
		&p.PDFURL,
		&p.CustomerEmail,
		&p.NotifyOnComplete,
		&p.PreviewPageCount,
		&p.TotalPageCount,
		&p.CreatedAt,
		&p.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(request, &p.Request); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if len(pages) > 0 {
		if err := json.Unmarshal(pages, &p.Pages); err != nil {
			return nil, fmt.Errorf("decode pages: %w", err)
		}
	}
	return &p, nil
}

// Update applies a partial-field merge. Nil fields leave the stored value
// untouched so concurrent writers on disjoint fields do not clobber each
// other.
func (r *PreviewRepositoryPG) Update(ctx context.Context, id string, upd domain.PreviewUpdate) error {
	var pages []byte
	if upd.Pages != nil {
		encoded, err := json.Marshal(upd.Pages)
		if err != nil {
			return fmt.Errorf("encode pages: %w", err)
		}
		pages = encoded
	}
	query := `
UPDATE previews
SET status             = COALESCE($2, status),
    phase              = COALESCE($3, phase),
    analyzed_features  = COALESCE($4, analyzed_features),
    cover_url          = COALESCE($5, cover_url),
    pages              = COALESCE($6, pages),
    pdf_url            = COALESCE($7, pdf_url),
    preview_page_count = COALESCE($8, preview_page_count),
    total_page_count   = COALESCE($9, total_page_count),
    updated_at         = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query,
		id,
		upd.Status,
		upd.Phase,
		upd.AnalyzedFeatures,
		upd.CoverURL,
		pages,
		upd.PDFURL,
		upd.PreviewPageCount,
		upd.TotalPageCount,
	)
	return err
}

// MarkExpired soft-expires previews whose TTL has lapsed. Purchased previews
// are left alone; the purchased book remains downloadable through its order.
func (r *PreviewRepositoryPG) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
UPDATE previews
SET status = $1, updated_at = NOW()
WHERE expires_at < $2
  AND status IN ($3, $4);
`
	tag, err := r.pool.Exec(ctx, query,
		domain.PreviewStatusExpired,
		now,
		domain.PreviewStatusGenerating,
		domain.PreviewStatusActive,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ domain.PreviewRepository = (*PreviewRepositoryPG)(nil)
