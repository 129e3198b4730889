package dto

import (
	"time"

	"github.com/pulseai/pulseai/internal/domain/plan"
	"github.com/pulseai/pulseai/internal/domain/profile"
	"github.com/pulseai/pulseai/internal/domain/subscription"
)

// ProfileResponse is the account summary
type ProfileResponse struct {
	Phone            string            `json:"phone"`
	FreeRequestsUsed int               `json:"freeRequestsUsed"`
	FreeRequestsLeft int               `json:"freeRequestsLeft"`
	MemberSince      string            `json:"memberSince"`
	Subscriptions    []SubscriptionDTO `json:"subscriptions"`
	Stats            StatsDTO          `json:"stats"`
}

// SubscriptionDTO is one row of subscription history
type SubscriptionDTO struct {
	PlanType      string  `json:"planType"`
	RequestsTotal *int    `json:"requestsTotal"`
	RequestsUsed  int     `json:"requestsUsed"`
	IsUnlimited   bool    `json:"isUnlimited"`
	ExpiresAt     *string `json:"expiresAt"`
	IsActive      bool    `json:"isActive"`
}

// StatsDTO aggregates usage and spend
type StatsDTO struct {
	TotalRequests int64   `json:"totalRequests"`
	TotalTokens   int64   `json:"totalTokens"`
	TotalSpent    float64 `json:"totalSpent"`
}

// ToProfileResponse converts a profile
func ToProfileResponse(p *profile.Profile) ProfileResponse {
	subs := make([]SubscriptionDTO, 0, len(p.Subscriptions))
	for _, s := range p.Subscriptions {
		subs = append(subs, toSubscriptionDTO(s))
	}

	return ProfileResponse{
		Phone:            p.Phone,
		FreeRequestsUsed: p.FreeRequestsUsed,
		FreeRequestsLeft: p.FreeRequestsLeft,
		MemberSince:      p.MemberSince.UTC().Format(time.RFC3339),
		Subscriptions:    subs,
		Stats: StatsDTO{
			TotalRequests: p.Stats.TotalRequests,
			TotalTokens:   p.Stats.TotalTokens,
			TotalSpent:    p.Stats.TotalSpent,
		},
	}
}

func toSubscriptionDTO(s *subscription.Subscription) SubscriptionDTO {
	d := SubscriptionDTO{
		PlanType:      s.PlanType,
		RequestsTotal: s.RequestsTotal,
		RequestsUsed:  s.RequestsUsed,
		IsUnlimited:   s.IsUnlimited,
		IsActive:      s.IsActive,
	}
	if s.ExpiresAt != nil {
		v := s.ExpiresAt.UTC().Format(time.RFC3339)
		d.ExpiresAt = &v
	}
	return d
}

// PlanDTO is one purchasable plan
type PlanDTO struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Price        int    `json:"price"`
	Requests     *int   `json:"requests"`
	Unlimited    bool   `json:"unlimited"`
	DurationDays int    `json:"durationDays,omitempty"`
}

// ToPlanDTOs converts the catalogue in price order
func ToPlanDTOs(plans []plan.Plan) []PlanDTO {
	out := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanDTO{
			Type:         p.Type,
			Title:        p.Title,
			Price:        p.Price,
			Requests:     p.Requests,
			Unlimited:    p.Unlimited,
			DurationDays: int(p.Duration.Hours() / 24),
		})
	}
	return out
}
