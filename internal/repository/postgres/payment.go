package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pulseai/pulseai/internal/domain/payment"
	"github.com/pulseai/pulseai/internal/domain/subscription"
	"github.com/pulseai/pulseai/internal/pkg/errors"
)

// PaymentRepository implements payment.Repository
type PaymentRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, d Dialect) payment.Repository {
	return &PaymentRepository{db: db, dialect: d}
}

// Create stores a payment, pending unless Status says otherwise
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = payment.StatusPending
	}

	query := r.dialect.Rebind(`
		INSERT INTO payments (user_id, payment_id, amount, plan_type, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.PaymentID, p.Amount, p.PlanType, p.Status, toUnix(p.CreatedAt), toUnix(p.UpdatedAt),
	).Scan(&p.ID)
	if err != nil {
		return errors.DatabaseError("Failed to create payment", err)
	}
	return nil
}

// GetByGatewayID retrieves a payment by the gateway's id
func (r *PaymentRepository) GetByGatewayID(ctx context.Context, gatewayID string) (*payment.Payment, error) {
	query := r.dialect.Rebind(`
		SELECT id, user_id, payment_id, amount, plan_type, status, created_at, updated_at
		FROM payments WHERE payment_id = ?`)

	var p payment.Payment
	var createdAt, updatedAt int64
	err := r.db.QueryRowContext(ctx, query, gatewayID).Scan(
		&p.ID, &p.UserID, &p.PaymentID, &p.Amount, &p.PlanType, &p.Status, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Payment")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get payment", err)
	}

	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	return &p, nil
}

// Complete flips the payment to succeeded and grants sub. The conditional
// update is the idempotency guard: a repeated delivery matches no row and
// the subscription insert is skipped.
func (r *PaymentRepository) Complete(ctx context.Context, gatewayID string, at time.Time, sub *subscription.Subscription) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	update := r.dialect.Rebind(`
		UPDATE payments SET status = ?, updated_at = ?
		WHERE payment_id = ? AND status <> ?`)

	result, err := tx.ExecContext(ctx, update,
		payment.StatusSucceeded, toUnix(at), gatewayID, payment.StatusSucceeded,
	)
	if err != nil {
		return false, errors.DatabaseError("Failed to update payment", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}

	if rows == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT 1 FROM payments WHERE payment_id = ?`), gatewayID).Scan(&exists)
		if err == sql.ErrNoRows {
			return false, errors.NotFound("Payment")
		}
		if err != nil {
			return false, errors.DatabaseError("Failed to get payment", err)
		}
		return false, nil
	}

	if err := insertSubscription(ctx, tx, r.dialect, sub); err != nil {
		return false, errors.DatabaseError("Failed to create subscription", err)
	}

	if err := tx.Commit(); err != nil {
		return false, errors.DatabaseError("Failed to commit payment", err)
	}
	return true, nil
}

// ListPending returns pending payments created before the cutoff, least
// recently checked first
func (r *PaymentRepository) ListPending(ctx context.Context, before time.Time, limit int) ([]*payment.Payment, error) {
	query := r.dialect.Rebind(`
		SELECT id, user_id, payment_id, amount, plan_type, status, created_at, updated_at
		FROM payments
		WHERE status = ? AND created_at < ?
		ORDER BY updated_at ASC, id ASC
		LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, payment.StatusPending, toUnix(before), limit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list pending payments", err)
	}
	defer rows.Close()

	payments := make([]*payment.Payment, 0)
	for rows.Next() {
		var p payment.Payment
		var createdAt, updatedAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.PaymentID, &p.Amount, &p.PlanType, &p.Status, &createdAt, &updatedAt); err != nil {
			return nil, errors.DatabaseError("Failed to scan payment", err)
		}
		p.CreatedAt = fromUnix(createdAt)
		p.UpdatedAt = fromUnix(updatedAt)
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list pending payments", err)
	}
	return payments, nil
}

// MarkChecked records a reconcile check on a payment that is still pending
func (r *PaymentRepository) MarkChecked(ctx context.Context, gatewayID string, at time.Time) error {
	query := r.dialect.Rebind(`UPDATE payments SET updated_at = ? WHERE payment_id = ? AND status = ?`)

	if _, err := r.db.ExecContext(ctx, query, toUnix(at), gatewayID, payment.StatusPending); err != nil {
		return errors.DatabaseError("Failed to mark payment checked", err)
	}
	return nil
}

// SumSucceeded totals a user's succeeded payments
func (r *PaymentRepository) SumSucceeded(ctx context.Context, userID int64) (float64, error) {
	query := r.dialect.Rebind(`
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE user_id = ? AND status = ?`)

	var total float64
	if err := r.db.QueryRowContext(ctx, query, userID, payment.StatusSucceeded).Scan(&total); err != nil {
		return 0, errors.DatabaseError("Failed to sum payments", err)
	}
	return total, nil
}
