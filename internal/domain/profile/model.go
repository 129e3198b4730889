package profile

import (
	"context"
	"time"

	"github.com/pulseai/pulseai/internal/domain/subscription"
)

// Profile is the read-only account summary shown to a user
type Profile struct {
	Phone            string
	FreeRequestsUsed int
	FreeRequestsLeft int
	MemberSince      time.Time
	Subscriptions    []*subscription.Subscription
	Stats            Stats
}

// Stats aggregates usage and spend
type Stats struct {
	TotalRequests int64
	TotalTokens   int64
	TotalSpent    float64
}

// Service builds profiles
type Service interface {
	Get(ctx context.Context, userID int64) (*Profile, error)
}
