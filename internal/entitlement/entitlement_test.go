package entitlement

import (
	"testing"
	"time"

	"github.com/pulseai/pulseai/internal/domain/subscription"
)

func intPtr(v int) *int { return &v }

func TestPolicy_Evaluate(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	later := now.Add(24 * time.Hour)
	earlier := now.Add(-time.Minute)
	p := DefaultPolicy()

	tests := []struct {
		name  string
		usage Usage
		want  Decision
	}{
		{
			name:  "new user gets the free tier",
			usage: Usage{FreeRequestsUsed: 0},
			want:  Decision{Allowed: true, Bucket: BucketFree, RequestsLeft: 9},
		},
		{
			name:  "last free request",
			usage: Usage{FreeRequestsUsed: 9},
			want:  Decision{Allowed: true, Bucket: BucketFree, RequestsLeft: 0},
		},
		{
			name:  "free tier exhausted",
			usage: Usage{FreeRequestsUsed: 10},
			want:  Decision{},
		},
		{
			name: "unlimited in force ignores usage",
			usage: Usage{Subscription: &subscription.Subscription{
				ID: 4, IsUnlimited: true, ExpiresAt: &later, RequestsUsed: 5000,
			}},
			want: Decision{Allowed: true, Bucket: BucketSubscription, SubscriptionID: 4, RequestsLeft: 999999},
		},
		{
			name: "metered subscription with requests left",
			usage: Usage{FreeRequestsUsed: 10, Subscription: &subscription.Subscription{
				ID: 2, RequestsTotal: intPtr(20), RequestsUsed: 5,
			}},
			want: Decision{Allowed: true, Bucket: BucketSubscription, SubscriptionID: 2, RequestsLeft: 14},
		},
		{
			name: "exhausted subscription denies even with free requests unused",
			usage: Usage{FreeRequestsUsed: 0, Subscription: &subscription.Subscription{
				ID: 3, RequestsTotal: intPtr(20), RequestsUsed: 20,
			}},
			want: Decision{},
		},
		{
			name: "expired unlimited does not fall back to free tier",
			usage: Usage{FreeRequestsUsed: 0, Subscription: &subscription.Subscription{
				ID: 5, IsUnlimited: true, ExpiresAt: &earlier,
			}},
			want: Decision{},
		},
		{
			name: "unlimited expiring exactly now is expired",
			usage: Usage{Subscription: &subscription.Subscription{
				ID: 6, IsUnlimited: true, ExpiresAt: &now,
			}},
			want: Decision{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Evaluate(tt.usage, now)
			if got != tt.want {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPolicy_FreeLeft(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		used int
		want int
	}{
		{used: 0, want: 10},
		{used: 7, want: 3},
		{used: 10, want: 0},
		{used: 12, want: 0},
	}

	for _, tt := range tests {
		if got := p.FreeLeft(tt.used); got != tt.want {
			t.Errorf("FreeLeft(%d) = %d, want %d", tt.used, got, tt.want)
		}
	}
}
