package services

import (
	"context"
	"testing"
	"time"

	"github.com/pulseai/pulseai/internal/domain/airequest"
	"github.com/pulseai/pulseai/internal/domain/payment"
	"github.com/pulseai/pulseai/internal/domain/subscription"
	"github.com/pulseai/pulseai/internal/domain/user"
	"github.com/pulseai/pulseai/internal/entitlement"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/testutil"
)

func TestProfileService_Get(t *testing.T) {
	users := testutil.NewMockUserRepository()
	subs := testutil.NewMockSubscriptionRepository()
	requests := testutil.NewMockAIRequestRepository()
	payments := testutil.NewMockPaymentRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := NewProfileService(users, subs, requests, payments, entitlement.DefaultPolicy(), log)
	ctx := context.Background()

	joined := time.Date(2024, 12, 24, 18, 0, 0, 0, time.UTC)
	u := users.Add(&user.User{Phone: "+79990000000", FreeRequestsUsed: 12, CreatedAt: joined})

	total := 20
	subs.Add(&subscription.Subscription{UserID: u.ID, PlanType: "starter", RequestsTotal: &total, RequestsUsed: 20, IsActive: true, CreatedAt: joined.Add(time.Hour)})
	expires := joined.Add(31 * 24 * time.Hour)
	subs.Add(&subscription.Subscription{UserID: u.ID, PlanType: "unlimited", IsUnlimited: true, ExpiresAt: &expires, IsActive: true, CreatedAt: joined.Add(24 * time.Hour)})

	requests.Add(&airequest.AIRequest{UserID: u.ID, TokensUsed: 100})
	requests.Add(&airequest.AIRequest{UserID: u.ID, TokensUsed: 55})
	requests.Add(&airequest.AIRequest{UserID: u.ID + 1, TokensUsed: 999})

	payments.Create(ctx, &payment.Payment{UserID: u.ID, PaymentID: "a", Amount: 299, PlanType: "starter"})
	payments.Create(ctx, &payment.Payment{UserID: u.ID, PaymentID: "b", Amount: 499, PlanType: "unlimited"})
	payments.Create(ctx, &payment.Payment{UserID: u.ID, PaymentID: "c", Amount: 399, PlanType: "pro"})
	payments.Complete(ctx, "a", joined, &subscription.Subscription{})
	payments.Complete(ctx, "b", joined, &subscription.Subscription{})

	p, err := service.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if p.Phone != "+79990000000" || p.FreeRequestsUsed != 12 || p.FreeRequestsLeft != 0 {
		t.Errorf("Get() identity = %+v", p)
	}
	if !p.MemberSince.Equal(joined) {
		t.Errorf("MemberSince = %v, want %v", p.MemberSince, joined)
	}
	if len(p.Subscriptions) != 2 || p.Subscriptions[0].PlanType != "unlimited" {
		t.Errorf("Subscriptions = %+v, want full history newest first", p.Subscriptions)
	}
	if p.Stats.TotalRequests != 2 || p.Stats.TotalTokens != 155 || p.Stats.TotalSpent != 798 {
		t.Errorf("Stats = %+v", p.Stats)
	}
}

func TestProfileService_GetErrors(t *testing.T) {
	users := testutil.NewMockUserRepository()
	users.Add(&user.User{Phone: "+79990000000", FreeRequestsUsed: 3})
	service := NewProfileService(users, testutil.NewMockSubscriptionRepository(), testutil.NewMockAIRequestRepository(),
		testutil.NewMockPaymentRepository(), entitlement.DefaultPolicy(), logger.New(logger.Config{Level: "error", Format: "json"}))

	tests := []struct {
		name    string
		userID  int64
		wantErr string
	}{
		{name: "missing user id", userID: 0, wantErr: errors.ErrCodeValidation},
		{name: "unknown user", userID: 42, wantErr: errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Get(context.Background(), tt.userID)
			if !errors.HasCode(err, tt.wantErr) {
				t.Errorf("Get() error = %v, want %s", err, tt.wantErr)
			}
		})
	}

	p, err := service.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.FreeRequestsLeft != 7 || p.Subscriptions == nil || len(p.Subscriptions) != 0 {
		t.Errorf("Get() new user = %+v", p)
	}
}
