package subscription

import "context"

// Repository reads subscription history. Rows are written by the payment
// repository when a payment succeeds and by the usage ledger.
type Repository interface {
	// LatestActive returns the most recently created active subscription,
	// or nil when the user has none
	LatestActive(ctx context.Context, userID int64) (*Subscription, error)

	// ListByUser returns every subscription for a user, newest first
	ListByUser(ctx context.Context, userID int64) ([]*Subscription, error)
}
