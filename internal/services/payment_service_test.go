package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/payment"
	"github.com/pulseai/pulseai/internal/domain/plan"
	"github.com/pulseai/pulseai/internal/domain/user"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/repository/postgres"
	"github.com/pulseai/pulseai/internal/testutil"
)

type paymentFixture struct {
	service  payment.Service
	payments *testutil.MockPaymentRepository
	users    *testutil.MockUserRepository
	gateway  *testutil.MockGateway
	now      time.Time
}

func newPaymentFixture(verify bool) *paymentFixture {
	f := &paymentFixture{
		payments: testutil.NewMockPaymentRepository(),
		users:    testutil.NewMockUserRepository(),
		gateway:  testutil.NewMockGateway(),
		now:      time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC),
	}
	cfg := config.PaymentConfig{
		ReturnURL:      "https://pulseai.ru/payment/success",
		Currency:       "RUB",
		DescriptionFmt: "PulseAI - %s",
		VerifyWebhooks: verify,
		Timeout:        5 * time.Second,
	}
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	f.service = NewPaymentService(f.payments, f.users, f.gateway, plan.Default(), cfg, log,
		WithPaymentClock(func() time.Time { return f.now }))
	return f
}

func TestPaymentService_CreateCheckout(t *testing.T) {
	f := newPaymentFixture(false)
	u := f.users.Add(&user.User{Phone: "+79990000000"})

	checkout, err := f.service.CreateCheckout(context.Background(), u.ID, "pro")
	if err != nil {
		t.Fatalf("CreateCheckout() error = %v", err)
	}
	if checkout.PaymentID == "" || checkout.PaymentURL == "" {
		t.Fatalf("CreateCheckout() = %+v", checkout)
	}

	req := f.gateway.Requests[0]
	if req.Amount != "399.00" || req.Currency != "RUB" {
		t.Errorf("amount = %s %s, want 399.00 RUB", req.Amount, req.Currency)
	}
	if req.Description != "PulseAI - pro" || req.ReturnURL != "https://pulseai.ru/payment/success" {
		t.Errorf("request = %+v", req)
	}
	if req.Metadata["user_id"] != fmt.Sprint(u.ID) || req.Metadata["plan_type"] != "pro" {
		t.Errorf("metadata = %v", req.Metadata)
	}

	stored, err := f.payments.GetByGatewayID(context.Background(), checkout.PaymentID)
	if err != nil {
		t.Fatalf("payment not stored: %v", err)
	}
	if stored.Status != payment.StatusPending || stored.Amount != 399 || stored.UserID != u.ID {
		t.Errorf("stored payment = %+v", stored)
	}
}

func TestPaymentService_CreateCheckoutErrors(t *testing.T) {
	tests := []struct {
		name       string
		userID     int64
		planType   string
		gatewayErr error
		wantErr    string
	}{
		{name: "missing user id", userID: 0, planType: "pro", wantErr: errors.ErrCodeValidation},
		{name: "missing plan", userID: 1, planType: " ", wantErr: errors.ErrCodeValidation},
		{name: "unknown plan", userID: 1, planType: "enterprise", wantErr: errors.ErrCodeInvalidPlan},
		{name: "unknown user", userID: 99, planType: "starter", wantErr: errors.ErrCodeNotFound},
		{name: "gateway failure", userID: 1, planType: "starter", gatewayErr: fmt.Errorf("connection refused"), wantErr: errors.ErrCodeGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(false)
			f.users.Add(&user.User{Phone: "+79990000000"})
			f.gateway.CreateErr = tt.gatewayErr

			_, err := f.service.CreateCheckout(context.Background(), tt.userID, tt.planType)
			if !errors.HasCode(err, tt.wantErr) {
				t.Fatalf("CreateCheckout() error = %v, want %s", err, tt.wantErr)
			}
			if len(f.payments.Payments) != 0 {
				t.Errorf("payments stored = %d, want 0", len(f.payments.Payments))
			}
			if tt.wantErr == errors.ErrCodeGateway {
				appErr, _ := errors.As(err)
				if appErr.Message != "Payment creation failed" {
					t.Errorf("message = %q", appErr.Message)
				}
			}
		})
	}
}

func succeeded(id string, meta map[string]string) payment.Notification {
	return payment.Notification{
		Type:   "notification",
		Event:  payment.EventSucceeded,
		Object: payment.NotificationObject{ID: id, Status: payment.StatusSucceeded, Paid: true, Metadata: meta},
	}
}

func TestPaymentService_HandleWebhookTwice(t *testing.T) {
	f := newPaymentFixture(false)
	u := f.users.Add(&user.User{Phone: "+79990000000"})
	ctx := context.Background()

	checkout, err := f.service.CreateCheckout(ctx, u.ID, "unlimited")
	if err != nil {
		t.Fatalf("CreateCheckout() error = %v", err)
	}

	n := succeeded(checkout.PaymentID, map[string]string{"user_id": fmt.Sprint(u.ID), "plan_type": "unlimited"})
	for i := 0; i < 2; i++ {
		status, err := f.service.HandleWebhook(ctx, n)
		if err != nil {
			t.Fatalf("HandleWebhook() delivery %d error = %v", i+1, err)
		}
		if status != payment.WebhookOK {
			t.Errorf("HandleWebhook() delivery %d = %q, want ok", i+1, status)
		}
	}

	if len(f.payments.Subscriptions) != 1 {
		t.Fatalf("subscriptions = %d, want 1", len(f.payments.Subscriptions))
	}
	sub := f.payments.Subscriptions[0]
	if !sub.IsUnlimited || sub.ExpiresAt == nil || !sub.ExpiresAt.Equal(f.now.Add(30*24*time.Hour)) {
		t.Errorf("subscription = %+v, want unlimited for 30 days", sub)
	}

	stored, _ := f.payments.GetByGatewayID(ctx, checkout.PaymentID)
	if stored.Status != payment.StatusSucceeded {
		t.Errorf("payment status = %q, want succeeded", stored.Status)
	}
}

func TestPaymentService_HandleWebhookGrant(t *testing.T) {
	tests := []struct {
		name      string
		meta      map[string]string
		wantUser  int64
		wantPlan  string
		wantTotal int
	}{
		{name: "metadata", meta: map[string]string{"user_id": "1", "plan_type": "starter"}, wantUser: 1, wantPlan: "starter", wantTotal: 20},
		{name: "metadata missing uses stored payment", meta: nil, wantUser: 1, wantPlan: "pro", wantTotal: 30},
		{name: "garbage metadata uses stored payment", meta: map[string]string{"user_id": "abc", "plan_type": "gold"}, wantUser: 1, wantPlan: "pro", wantTotal: 30},
		{name: "metadata user not owning the payment", meta: map[string]string{"user_id": "2", "plan_type": "starter"}, wantUser: 1, wantPlan: "starter", wantTotal: 20},
		{name: "metadata user that does not exist", meta: map[string]string{"user_id": "999"}, wantUser: 1, wantPlan: "pro", wantTotal: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(false)
			f.users.Add(&user.User{Phone: "+79990000000"})
			f.payments.Create(context.Background(), &payment.Payment{UserID: 1, PaymentID: "pay-x", Amount: 399, PlanType: "pro"})

			status, err := f.service.HandleWebhook(context.Background(), succeeded("pay-x", tt.meta))
			if err != nil || status != payment.WebhookOK {
				t.Fatalf("HandleWebhook() = %q, %v", status, err)
			}

			sub := f.payments.Subscriptions[0]
			if sub.UserID != tt.wantUser || sub.PlanType != tt.wantPlan || sub.Total() != tt.wantTotal {
				t.Errorf("subscription = %+v", sub)
			}
			if sub.IsUnlimited || sub.ExpiresAt != nil || !sub.IsActive {
				t.Errorf("metered subscription = %+v", sub)
			}
		})
	}
}

func TestPaymentService_HandleWebhookForeignUserOnStore(t *testing.T) {
	db := testutil.NewTestDB(t)
	payments := postgres.NewPaymentRepository(db, postgres.SQLite)
	users := postgres.NewUserRepository(db, postgres.SQLite)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := NewPaymentService(payments, users, testutil.NewMockGateway(), plan.Default(),
		config.PaymentConfig{Timeout: time.Second}, log)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "+79990000000", 0)
	if err := payments.Create(ctx, &payment.Payment{UserID: owner, PaymentID: "pay-x", Amount: 299, PlanType: "starter"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	status, err := service.HandleWebhook(ctx, succeeded("pay-x", map[string]string{"user_id": fmt.Sprint(owner + 100), "plan_type": "starter"}))
	if err != nil || status != payment.WebhookOK {
		t.Fatalf("HandleWebhook() = %q, %v; want ok", status, err)
	}
	if n := testutil.CountRows(t, db, "subscriptions", "user_id = ?", owner); n != 1 {
		t.Errorf("owner subscriptions = %d, want 1", n)
	}
}

func TestPaymentService_HandleWebhookIgnored(t *testing.T) {
	tests := []struct {
		name string
		n    payment.Notification
	}{
		{name: "other event", n: payment.Notification{Event: "payment.canceled", Object: payment.NotificationObject{ID: "pay-x"}}},
		{name: "waiting for capture", n: payment.Notification{Event: "payment.waiting_for_capture", Object: payment.NotificationObject{ID: "pay-x"}}},
		{name: "unknown payment", n: succeeded("pay-unknown", nil)},
		{name: "missing payment id", n: succeeded("", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(false)
			f.payments.Create(context.Background(), &payment.Payment{UserID: 1, PaymentID: "pay-x", Amount: 299, PlanType: "starter"})

			status, err := f.service.HandleWebhook(context.Background(), tt.n)
			if err != nil {
				t.Fatalf("HandleWebhook() error = %v", err)
			}
			if status != payment.WebhookIgnored {
				t.Errorf("HandleWebhook() = %q, want ignored", status)
			}
			if len(f.payments.Subscriptions) != 0 {
				t.Errorf("subscriptions = %d, want 0", len(f.payments.Subscriptions))
			}
		})
	}
}

func TestPaymentService_HandleWebhookVerified(t *testing.T) {
	tests := []struct {
		name          string
		remoteStatus  string
		getErr        error
		wantStatus    string
		wantErr       string
		wantGrantsSub bool
	}{
		{name: "gateway confirms", remoteStatus: payment.StatusSucceeded, wantStatus: payment.WebhookOK, wantGrantsSub: true},
		{name: "gateway still pending", remoteStatus: payment.StatusPending, wantStatus: payment.WebhookIgnored},
		{name: "gateway unreachable", getErr: fmt.Errorf("timeout"), wantErr: errors.ErrCodeGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(true)
			u := f.users.Add(&user.User{Phone: "+79990000000"})
			ctx := context.Background()

			checkout, err := f.service.CreateCheckout(ctx, u.ID, "starter")
			if err != nil {
				t.Fatalf("CreateCheckout() error = %v", err)
			}
			if tt.remoteStatus != "" {
				f.gateway.SetStatus(checkout.PaymentID, tt.remoteStatus)
			}
			f.gateway.GetErr = tt.getErr

			status, err := f.service.HandleWebhook(ctx, succeeded(checkout.PaymentID, nil))
			if tt.wantErr != "" {
				if !errors.HasCode(err, tt.wantErr) {
					t.Fatalf("HandleWebhook() error = %v, want %s", err, tt.wantErr)
				}
			} else if err != nil || status != tt.wantStatus {
				t.Fatalf("HandleWebhook() = %q, %v; want %q", status, err, tt.wantStatus)
			}

			if got := len(f.payments.Subscriptions) == 1; got != tt.wantGrantsSub {
				t.Errorf("subscription granted = %v, want %v", got, tt.wantGrantsSub)
			}
		})
	}
}
