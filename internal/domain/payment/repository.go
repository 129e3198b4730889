package payment

import (
	"context"
	"time"

	"github.com/pulseai/pulseai/internal/domain/subscription"
)

// Repository defines the interface for payment data access
type Repository interface {
	// Create stores a new pending payment
	Create(ctx context.Context, p *Payment) error

	// GetByGatewayID retrieves a payment by the gateway's payment id
	GetByGatewayID(ctx context.Context, gatewayID string) (*Payment, error)

	// Complete marks the payment succeeded and inserts sub in one
	// transaction. It reports false, and writes nothing, when the payment
	// had already succeeded.
	Complete(ctx context.Context, gatewayID string, at time.Time, sub *subscription.Subscription) (bool, error)

	// ListPending returns pending payments created before cutoff, least
	// recently checked first
	ListPending(ctx context.Context, before time.Time, limit int) ([]*Payment, error)
	// MarkChecked bumps updated_at on a payment that is still pending so the
	// next ListPending moves on to other rows
	MarkChecked(ctx context.Context, gatewayID string, at time.Time) error
	// SumSucceeded returns the total amount of a user's succeeded payments
	SumSucceeded(ctx context.Context, userID int64) (float64, error)
}
