package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulseai/pulseai/internal/domain/airequest"
	"github.com/pulseai/pulseai/internal/entitlement"
	"github.com/pulseai/pulseai/internal/pkg/errors"
)

// LedgerRepository implements entitlement.Ledger
type LedgerRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewLedgerRepository creates the quota ledger
func NewLedgerRepository(db *sql.DB, d Dialect) entitlement.Ledger {
	return &LedgerRepository{db: db, dialect: d}
}

func (r *LedgerRepository) usage(ctx context.Context, q querier, userID int64, lock bool) (*entitlement.Usage, error) {
	query := `SELECT free_requests_used FROM users WHERE id = ?`
	if lock {
		query += r.dialect.forUpdate()
	}

	u := &entitlement.Usage{UserID: userID}
	err := q.QueryRowContext(ctx, r.dialect.Rebind(query), userID).Scan(&u.FreeRequestsUsed)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to read usage", err)
	}

	sub, err := latestActive(ctx, q, r.dialect, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to read subscription", err)
	}
	u.Subscription = sub
	return u, nil
}

// Usage reads the user's counters without locking
func (r *LedgerRepository) Usage(ctx context.Context, userID int64) (*entitlement.Usage, error) {
	return r.usage(ctx, r.db, userID, false)
}

// Charge evaluates and charges inside one transaction. The user row lock
// serialises concurrent charges for the same user on postgres; sqlite
// holds the database write lock from BEGIN.
func (r *LedgerRepository) Charge(ctx context.Context, userID int64, entry *airequest.AIRequest, decide func(entitlement.Usage) entitlement.Decision) (entitlement.Decision, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entitlement.Decision{}, errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	u, err := r.usage(ctx, tx, userID, true)
	if err != nil {
		return entitlement.Decision{}, err
	}

	d := decide(*u)
	if !d.Allowed {
		return d, nil
	}

	var result sql.Result
	switch d.Bucket {
	case entitlement.BucketFree:
		result, err = tx.ExecContext(ctx,
			r.dialect.Rebind(`UPDATE users SET free_requests_used = free_requests_used + 1 WHERE id = ?`),
			userID)
	case entitlement.BucketSubscription:
		result, err = tx.ExecContext(ctx,
			r.dialect.Rebind(`UPDATE subscriptions SET requests_used = requests_used + 1 WHERE id = ? AND user_id = ?`),
			d.SubscriptionID, userID)
	default:
		return entitlement.Decision{}, errors.Internal("Failed to charge request", fmt.Errorf("unknown bucket %q", d.Bucket))
	}
	if err != nil {
		return entitlement.Decision{}, errors.DatabaseError("Failed to charge request", err)
	}
	if n, err := result.RowsAffected(); err != nil || n != 1 {
		return entitlement.Decision{}, errors.DatabaseError("Failed to charge request", fmt.Errorf("charged %d rows: %v", n, err))
	}

	entry.UserID = userID
	if err := insertAIRequest(ctx, tx, r.dialect, entry); err != nil {
		return entitlement.Decision{}, errors.DatabaseError("Failed to log request", err)
	}

	if err := tx.Commit(); err != nil {
		return entitlement.Decision{}, errors.DatabaseError("Failed to commit request", err)
	}
	return d, nil
}
