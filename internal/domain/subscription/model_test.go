package subscription

import (
	"testing"
	"time"
)

func TestSubscription_UnlimitedAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{name: "unlimited, expires later", sub: Subscription{IsUnlimited: true, ExpiresAt: &future}, want: true},
		{name: "unlimited, expired", sub: Subscription{IsUnlimited: true, ExpiresAt: &past}, want: false},
		{name: "unlimited, expires exactly now", sub: Subscription{IsUnlimited: true, ExpiresAt: &now}, want: false},
		{name: "unlimited without expiry", sub: Subscription{IsUnlimited: true}, want: false},
		{name: "metered plan", sub: Subscription{ExpiresAt: &future}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.UnlimitedAt(now); got != tt.want {
				t.Errorf("UnlimitedAt() = %v, want %v", got, tt.want)
			}
		})
	}
}
