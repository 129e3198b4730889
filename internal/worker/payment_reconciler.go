package worker

import (
	"context"
	"time"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/payment"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/metrics"
)

// PaymentReconciler recovers payments whose success webhook never arrived.
// Pending payments older than the grace period are looked up at the gateway
// and fed through the webhook path, so a late delivery stays a no-op. Each
// pass is a single bounded invocation; scheduling is left to the operator.
// Payments that are checked but not applied are marked so the next pass
// starts with ones it has not looked at yet.
type PaymentReconciler struct {
	repo     payment.Repository
	gateway  payment.Gateway
	payments payment.Service
	after    time.Duration
	batch    int
	logger   *logger.Logger
	now      func() time.Time
}

// NewPaymentReconciler creates a new reconciler worker
func NewPaymentReconciler(
	repo payment.Repository,
	gateway payment.Gateway,
	payments payment.Service,
	cfg config.PaymentConfig,
	log *logger.Logger,
) *PaymentReconciler {
	batch := cfg.ReconcileBatch
	if batch <= 0 {
		batch = 100
	}
	return &PaymentReconciler{
		repo:     repo,
		gateway:  gateway,
		payments: payments,
		after:    cfg.ReconcileAfter,
		batch:    batch,
		logger:   log,
		now:      time.Now,
	}
}

// Result summarises one reconcile pass
type Result struct {
	Checked int
	Applied int
	Failed  int
}

// ReconcileOnce checks one batch of stale pending payments against the
// gateway and applies those it confirms
func (r *PaymentReconciler) ReconcileOnce(ctx context.Context) (Result, error) {
	var res Result

	cutoff := r.now().Add(-r.after)
	pending, err := r.repo.ListPending(ctx, cutoff, r.batch)
	if err != nil {
		r.logger.ErrorWithErr(err, "Failed to list pending payments")
		return res, err
	}

	for _, p := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Checked++

		log := r.logger.WithFields(map[string]interface{}{
			"payment_id": p.PaymentID,
			"user_id":    p.UserID,
		})

		applied, err := r.reconcile(ctx, p, log)
		if err != nil {
			res.Failed++
		}
		if applied {
			res.Applied++
			continue
		}
		if err := r.repo.MarkChecked(ctx, p.PaymentID, r.now()); err != nil {
			log.WithError(err).Warn("Failed to mark payment checked")
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"checked": res.Checked,
		"applied": res.Applied,
		"failed":  res.Failed,
	}).Info("Payment reconcile pass finished")

	return res, nil
}

// reconcile looks a payment up at the gateway and applies it when the gateway
// reports success
func (r *PaymentReconciler) reconcile(ctx context.Context, p *payment.Payment, log *logger.Logger) (bool, error) {
	gp, err := r.gateway.GetPayment(ctx, p.PaymentID)
	if err != nil {
		metrics.RecordReconcile("gateway_error")
		log.WithError(err).Warn("Failed to fetch payment from gateway")
		return false, err
	}
	if gp.Status != payment.StatusSucceeded {
		metrics.RecordReconcile(gp.Status)
		return false, nil
	}

	status, err := r.payments.HandleWebhook(ctx, payment.Notification{
		Type:  "notification",
		Event: payment.EventSucceeded,
		Object: payment.NotificationObject{
			ID:       p.PaymentID,
			Status:   gp.Status,
			Paid:     gp.Paid,
			Metadata: gp.Metadata,
		},
	})
	if err != nil {
		metrics.RecordReconcile("apply_error")
		log.WithError(err).Error("Failed to apply reconciled payment")
		return false, err
	}
	if status != payment.WebhookOK {
		return false, nil
	}
	metrics.RecordReconcile("applied")
	log.Info("Reconciled payment applied")
	return true, nil
}
