package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storybook/internal/domain"
)

// OrderRepositoryPG implements domain.OrderRepository.
type OrderRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new order repository backed by PostgreSQL.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepositoryPG {
	return &OrderRepositoryPG{pool: pool}
}

// Create inserts a new order record. A conflicting id maps to
// domain.ErrDuplicateOrder so the webhook layer can treat a replayed
// payment confirmation as a no-op.
func (r *OrderRepositoryPG) Create(ctx context.Context, order *domain.Order) error {
	query := `
INSERT INTO orders (id, preview_id, customer_email, customer_name, status, retry_count, error_message, pdf_url, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING;
`
	tag, err := r.pool.Exec(ctx, query,
		order.ID,
		order.PreviewID,
		order.CustomerEmail,
		order.CustomerName,
		order.Status,
		order.RetryCount,
		order.ErrorMessage,
		order.PDFURL,
		order.ExpiresAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateOrder
	}
	return nil
}

// GetByID fetches an order by its identifier.
func (r *OrderRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
SELECT id, preview_id, customer_email, customer_name, status, retry_count, error_message, pdf_url, created_at, expires_at
FROM orders
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	var order domain.Order
	if err := row.Scan(
		&order.ID,
		&order.PreviewID,
		&order.CustomerEmail,
		&order.CustomerName,
		&order.Status,
		&order.RetryCount,
		&order.ErrorMessage,
		&order.PDFURL,
		&order.CreatedAt,
		&order.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Exists reports whether an order with the given id has been recorded.
func (r *OrderRepositoryPG) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1);`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Update applies a partial-field merge.
func (r *OrderRepositoryPG) Update(ctx context.Context, id string, upd domain.OrderUpdate) error {
	query := `
UPDATE orders
SET status        = COALESCE($2, status),
    retry_count   = COALESCE($3, retry_count),
    error_message = COALESCE($4, error_message),
    pdf_url       = COALESCE($5, pdf_url),
    expires_at    = COALESCE($6, expires_at),
    updated_at    = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query,
		id,
		upd.Status,
		upd.RetryCount,
		upd.ErrorMessage,
		upd.PDFURL,
		upd.ExpiresAt,
	)
	return err
}

var _ domain.OrderRepository = (*OrderRepositoryPG)(nil)
