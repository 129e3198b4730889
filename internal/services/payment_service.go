package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/payment"
	"github.com/pulseai/pulseai/internal/domain/plan"
	"github.com/pulseai/pulseai/internal/domain/user"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/metrics"
)

// Metadata keys attached to gateway payments
const (
	metaUserID   = "user_id"
	metaPlanType = "plan_type"
)

// PaymentService implements payment.Service
type PaymentService struct {
	repo    payment.Repository
	users   user.Repository
	gateway payment.Gateway
	catalog *plan.Catalog
	cfg     config.PaymentConfig
	logger  *logger.Logger
	now     func() time.Time
}

// PaymentOption configures a PaymentService
type PaymentOption func(*PaymentService)

// WithPaymentClock overrides the time source used for subscription dates
func WithPaymentClock(now func() time.Time) PaymentOption {
	return func(s *PaymentService) { s.now = now }
}

// NewPaymentService creates a new payment service
func NewPaymentService(repo payment.Repository, users user.Repository, gateway payment.Gateway, catalog *plan.Catalog, cfg config.PaymentConfig, log *logger.Logger, opts ...PaymentOption) payment.Service {
	s := &PaymentService{
		repo:    repo,
		users:   users,
		gateway: gateway,
		catalog: catalog,
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCheckout opens a gateway payment for planType and stores it as pending
func (s *PaymentService) CreateCheckout(ctx context.Context, userID int64, planType string) (*payment.Checkout, error) {
	planType = strings.TrimSpace(planType)
	if userID <= 0 || planType == "" {
		return nil, errors.Validation("userId and planType are required")
	}

	p, ok := s.catalog.Lookup(planType)
	if !ok {
		return nil, errors.InvalidPlan()
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	gp, err := s.gateway.CreatePayment(ctx, payment.CreateRequest{
		Amount:      p.Amount(),
		Currency:    s.cfg.Currency,
		Description: fmt.Sprintf(s.cfg.DescriptionFmt, p.Type),
		ReturnURL:   s.cfg.ReturnURL,
		Metadata: map[string]string{
			metaUserID:   strconv.FormatInt(userID, 10),
			metaPlanType: p.Type,
		},
	})
	if err != nil {
		metrics.RecordPaymentCreated(p.Type, "gateway_error")
		s.logger.WithError(err).With("user_id", userID).Error("Gateway payment creation failed")
		return nil, errors.Gateway("Payment creation failed", err)
	}

	// the gateway payment exists now, so the row is written even if the
	// client went away
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout())
	defer cancel()

	record := &payment.Payment{
		UserID:    userID,
		PaymentID: gp.ID,
		Amount:    float64(p.Price),
		PlanType:  p.Type,
		Status:    payment.StatusPending,
	}
	if err := s.repo.Create(writeCtx, record); err != nil {
		metrics.RecordPaymentCreated(p.Type, "store_error")
		s.logger.WithError(err).With("payment_id", gp.ID).Error("Failed to store payment")
		return nil, err
	}

	metrics.RecordPaymentCreated(p.Type, payment.StatusPending)
	s.logger.WithFields(map[string]interface{}{
		"user_id":    userID,
		"payment_id": gp.ID,
		"plan":       p.Type,
	}).Info("Payment created")

	return &payment.Checkout{
		PaymentURL: gp.ConfirmationURL,
		PaymentID:  gp.ID,
	}, nil
}

// HandleWebhook applies a payment.succeeded notification at most once per
// gateway payment id. Every other event is acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, n payment.Notification) (string, error) {
	log := s.logger.WithFields(map[string]interface{}{
		"event":      n.Event,
		"payment_id": n.Object.ID,
	})

	if n.Event != payment.EventSucceeded {
		metrics.RecordWebhook(n.Event, payment.WebhookIgnored)
		log.Debug("Webhook event ignored")
		return payment.WebhookIgnored, nil
	}

	if n.Object.ID == "" {
		metrics.RecordWebhook(n.Event, payment.WebhookIgnored)
		log.Warn("Webhook without payment id")
		return payment.WebhookIgnored, nil
	}

	stored, err := s.repo.GetByGatewayID(ctx, n.Object.ID)
	if errors.HasCode(err, errors.ErrCodeNotFound) {
		metrics.RecordWebhook(n.Event, "unknown_payment")
		log.Warn("Webhook for unknown payment")
		return payment.WebhookIgnored, nil
	}
	if err != nil {
		return "", err
	}

	if s.cfg.VerifyWebhooks {
		gp, err := s.gateway.GetPayment(ctx, n.Object.ID)
		if err != nil {
			metrics.RecordWebhook(n.Event, "verify_error")
			log.WithError(err).Error("Failed to verify payment with gateway")
			return "", errors.Gateway("Payment verification failed", err)
		}
		if gp.Status != payment.StatusSucceeded {
			metrics.RecordWebhook(n.Event, "unconfirmed")
			log.With("gateway_status", gp.Status).Warn("Gateway does not confirm payment")
			return payment.WebhookIgnored, nil
		}
	}

	userID, planType := s.resolveGrant(log, n.Object.Metadata, stored)
	p, ok := s.catalog.Lookup(planType)
	if !ok {
		return "", errors.Internal("Unknown plan on payment", fmt.Errorf("plan %q for payment %s", planType, n.Object.ID))
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout())
	defer cancel()

	now := s.now().UTC()
	sub := p.NewSubscription(userID, now)
	applied, err := s.repo.Complete(writeCtx, n.Object.ID, now, sub)
	if err != nil {
		log.WithError(err).Error("Failed to apply payment")
		return "", err
	}

	if !applied {
		metrics.RecordWebhook(n.Event, "duplicate")
		log.Info("Payment already applied")
		return payment.WebhookOK, nil
	}

	metrics.RecordWebhook(n.Event, "applied")
	log.WithFields(map[string]interface{}{
		"user_id":         userID,
		"plan":            p.Type,
		"subscription_id": sub.ID,
	}).Info("Subscription granted")

	return payment.WebhookOK, nil
}

// resolveGrant picks the plan from the event metadata, falling back to the
// stored payment when it is missing or unknown. The user is always the
// stored payment's owner; a metadata user id that disagrees is logged and
// ignored.
func (s *PaymentService) resolveGrant(log *logger.Logger, meta map[string]string, stored *payment.Payment) (int64, string) {
	userID := stored.UserID
	if raw, ok := meta[metaUserID]; ok {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id != stored.UserID {
			log.WithFields(map[string]interface{}{
				"metadata_user_id": raw,
				"user_id":          stored.UserID,
			}).Warn("Webhook metadata user does not own the payment")
		}
	}

	planType := stored.PlanType
	if raw, ok := meta[metaPlanType]; ok {
		if _, known := s.catalog.Lookup(raw); known {
			planType = raw
		}
	}
	return userID, planType
}

func (s *PaymentService) writeTimeout() time.Duration {
	if s.cfg.Timeout > 0 {
		return s.cfg.Timeout
	}
	return 30 * time.Second
}
