package domain

import "time"

// OrderStatus enumerates order processing states.
type OrderStatus string

const (
	OrderStatusPaid          OrderStatus = "paid"
	OrderStatusGeneratingPDF OrderStatus = "generating_pdf"
	OrderStatusCompleted     OrderStatus = "completed"
	OrderStatusFailed        OrderStatus = "failed"
	OrderStatusRefunded      OrderStatus = "refunded"
)

// Order is created only after an external payment confirmation. It references
// a Preview by id; at most one non-failed order may exist per preview.
type Order struct {
	ID            string
	PreviewID     string
	CustomerEmail string
	CustomerName  string
	Status        OrderStatus
	RetryCount    int
	ErrorMessage  string
	PDFURL        string
	CreatedAt     time.Time
	ExpiresAt     *time.Time
}
