package payment

import "context"

// Service opens checkouts and applies gateway notifications
type Service interface {
	// CreateCheckout opens a gateway payment for a plan
	CreateCheckout(ctx context.Context, userID int64, planType string) (*Checkout, error)

	// HandleWebhook applies a notification and returns "ok" or "ignored"
	HandleWebhook(ctx context.Context, n Notification) (string, error)
}
