package postgres

import (
	"context"
	"database/sql"

	"github.com/pulseai/pulseai/internal/domain/subscription"
	"github.com/pulseai/pulseai/internal/pkg/errors"
)

// SubscriptionRepository implements subscription.Repository
type SubscriptionRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *sql.DB, d Dialect) subscription.Repository {
	return &SubscriptionRepository{db: db, dialect: d}
}

const subscriptionColumns = `id, user_id, plan_type, requests_total, requests_used, is_unlimited, expires_at, is_active, created_at`

func scanSubscription(row rowScanner) (*subscription.Subscription, error) {
	var s subscription.Subscription
	var total, expires sql.NullInt64
	var createdAt int64

	err := row.Scan(&s.ID, &s.UserID, &s.PlanType, &total, &s.RequestsUsed,
		&s.IsUnlimited, &expires, &s.IsActive, &createdAt)
	if err != nil {
		return nil, err
	}

	if total.Valid {
		v := int(total.Int64)
		s.RequestsTotal = &v
	}
	s.ExpiresAt = timePtr(expires)
	s.CreatedAt = fromUnix(createdAt)
	return &s, nil
}

// latestActive is shared with the ledger so the locked and unlocked reads
// agree on which row is current. Ties on created_at go to the later insert.
func latestActive(ctx context.Context, q querier, d Dialect, userID int64) (*subscription.Subscription, error) {
	query := d.Rebind(`
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = ? AND is_active = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`)

	s, err := scanSubscription(q.QueryRowContext(ctx, query, userID, true))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// LatestActive returns the newest active subscription or nil
func (r *SubscriptionRepository) LatestActive(ctx context.Context, userID int64) (*subscription.Subscription, error) {
	s, err := latestActive(ctx, r.db, r.dialect, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to get subscription", err)
	}
	return s, nil
}

// ListByUser returns the full history, newest first
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
	query := r.dialect.Rebind(`
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list subscriptions", err)
	}
	defer rows.Close()

	subs := []*subscription.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan subscription", err)
		}
		subs = append(subs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate subscriptions", err)
	}
	return subs, nil
}

func insertSubscription(ctx context.Context, q querier, d Dialect, s *subscription.Subscription) error {
	var total sql.NullInt64
	if s.RequestsTotal != nil {
		total = sql.NullInt64{Int64: int64(*s.RequestsTotal), Valid: true}
	}

	query := d.Rebind(`
		INSERT INTO subscriptions (user_id, plan_type, requests_total, requests_used, is_unlimited, expires_at, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	return q.QueryRowContext(ctx, query,
		s.UserID, s.PlanType, total, s.RequestsUsed, s.IsUnlimited, nullExpiry(s.ExpiresAt), s.IsActive, toUnix(s.CreatedAt),
	).Scan(&s.ID)
}
