package airequest

import "context"

// Repository reads the request log. Rows are appended by the usage ledger in
// the same transaction that charges quota.
type Repository interface {
	// Stats returns count and token sum for a user
	Stats(ctx context.Context, userID int64) (*Stats, error)

	// ListByUser returns the latest requests for a user, newest first
	ListByUser(ctx context.Context, userID int64, limit int) ([]*AIRequest, error)
}
