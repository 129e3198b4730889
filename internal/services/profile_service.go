package services

import (
	"context"

	"github.com/pulseai/pulseai/internal/domain/airequest"
	"github.com/pulseai/pulseai/internal/domain/payment"
	"github.com/pulseai/pulseai/internal/domain/profile"
	"github.com/pulseai/pulseai/internal/domain/subscription"
	"github.com/pulseai/pulseai/internal/domain/user"
	"github.com/pulseai/pulseai/internal/entitlement"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
)

// ProfileService implements profile.Service
type ProfileService struct {
	users    user.Repository
	subs     subscription.Repository
	requests airequest.Repository
	payments payment.Repository
	policy   entitlement.Policy
	logger   *logger.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	users user.Repository,
	subs subscription.Repository,
	requests airequest.Repository,
	payments payment.Repository,
	policy entitlement.Policy,
	log *logger.Logger,
) profile.Service {
	return &ProfileService{
		users:    users,
		subs:     subs,
		requests: requests,
		payments: payments,
		policy:   policy,
		logger:   log,
	}
}

// Get aggregates the user, their subscription history, usage and spend
func (s *ProfileService) Get(ctx context.Context, userID int64) (*profile.Profile, error) {
	if userID <= 0 {
		return nil, errors.Validation("userId is required")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to list subscriptions")
		return nil, err
	}

	stats, err := s.requests.Stats(ctx, userID)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to aggregate requests")
		return nil, err
	}

	spent, err := s.payments.SumSucceeded(ctx, userID)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to sum payments")
		return nil, err
	}

	return &profile.Profile{
		Phone:            u.Phone,
		FreeRequestsUsed: u.FreeRequestsUsed,
		FreeRequestsLeft: s.policy.FreeLeft(u.FreeRequestsUsed),
		MemberSince:      u.CreatedAt,
		Subscriptions:    subs,
		Stats: profile.Stats{
			TotalRequests: stats.TotalRequests,
			TotalTokens:   stats.TotalTokens,
			TotalSpent:    spent,
		},
	}, nil
}
