package repository

import (
	"context"

	"checkout-service/internal/domain"
)

type OrderRepository interface {
	// CreateOrGet merge-writes an order document, allocating an identifier
	// when the input carries none, and returns the stored document.
	CreateOrGet(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// UpdateStatus merge-writes the status, refreshed update timestamp and
	// optional payment sub-object. An empty orderID is a silent no-op.
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, payment *domain.PaymentInfo) error
	// FindByID returns (nil, nil) when no such order exists.
	FindByID(ctx context.Context, orderID string) (*domain.Order, error)
	// List returns up to limit orders, newest first.
	List(ctx context.Context, limit int) ([]domain.Order, error)
	// NewID allocates a fresh order identifier.
	NewID() string
	// MarkPaymentProcessed records a webhook delivery for a payment id and
	// reports whether it had already been recorded.
	MarkPaymentProcessed(ctx context.Context, paymentID string) (bool, error)
	// UnmarkPaymentProcessed drops a dedupe record, used to roll back the
	// mark when the status write that followed it failed.
	UnmarkPaymentProcessed(ctx context.Context, paymentID string) error
}
