// Package entitlement decides whether a user may spend an AI request and
// which counter pays for it.
package entitlement

import (
	"time"

	"github.com/pulseai/pulseai/internal/domain/subscription"
)

// Bucket names the counter charged for an admitted request
type Bucket string

const (
	BucketNone         Bucket = ""
	BucketFree         Bucket = "free"
	BucketSubscription Bucket = "subscription"
)

// Policy holds the quota constants
type Policy struct {
	FreeRequests      int
	UnlimitedSentinel int
}

// DefaultPolicy is ten free requests and 999999 reported for unlimited plans
func DefaultPolicy() Policy {
	return Policy{FreeRequests: 10, UnlimitedSentinel: 999999}
}

// Usage is the state a decision is made from
type Usage struct {
	UserID           int64
	FreeRequestsUsed int
	Subscription     *subscription.Subscription // newest active row, nil if none
}

// Decision is the single result that both admission and the reported
// remaining count come from
type Decision struct {
	Allowed        bool
	Bucket         Bucket
	SubscriptionID int64
	RequestsLeft   int // remaining after this request is charged
}

// Evaluate applies the admission rules in priority order.
//
// A user holding any active subscription row never falls back to the free
// tier, even when that subscription is exhausted or its unlimited period has
// ended.
func (p Policy) Evaluate(u Usage, now time.Time) Decision {
	if sub := u.Subscription; sub != nil {
		if sub.UnlimitedAt(now) {
			return Decision{
				Allowed:        true,
				Bucket:         BucketSubscription,
				SubscriptionID: sub.ID,
				RequestsLeft:   p.UnlimitedSentinel,
			}
		}
		if sub.RequestsUsed < sub.Total() {
			return Decision{
				Allowed:        true,
				Bucket:         BucketSubscription,
				SubscriptionID: sub.ID,
				RequestsLeft:   sub.Total() - sub.RequestsUsed - 1,
			}
		}
		return Decision{}
	}

	if u.FreeRequestsUsed < p.FreeRequests {
		return Decision{
			Allowed:      true,
			Bucket:       BucketFree,
			RequestsLeft: p.FreeRequests - u.FreeRequestsUsed - 1,
		}
	}

	return Decision{}
}

// FreeLeft is the unused free-tier allowance, never negative
func (p Policy) FreeLeft(used int) int {
	if left := p.FreeRequests - used; left > 0 {
		return left
	}
	return 0
}
