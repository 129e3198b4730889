package subscription

import "time"

// Subscription is a paid allotment of AI requests. Rows are history: a new
// purchase adds a row and only the newest active one grants access.
type Subscription struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	PlanType      string     `json:"planType"`
	RequestsTotal *int       `json:"requestsTotal"`
	RequestsUsed  int        `json:"requestsUsed"`
	IsUnlimited   bool       `json:"isUnlimited"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Total returns the request allotment, zero when none is recorded
func (s *Subscription) Total() int {
	if s.RequestsTotal == nil {
		return 0
	}
	return *s.RequestsTotal
}

// UnlimitedAt reports whether an unlimited plan is still in force at now
func (s *Subscription) UnlimitedAt(now time.Time) bool {
	return s.IsUnlimited && s.ExpiresAt != nil && now.Before(*s.ExpiresAt)
}
