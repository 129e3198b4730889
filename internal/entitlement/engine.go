package entitlement

import (
	"context"
	"time"

	"github.com/pulseai/pulseai/internal/domain/airequest"
	"github.com/pulseai/pulseai/internal/pkg/errors"
)

// Ledger is the store side of the engine
type Ledger interface {
	// Usage reads the current state without locking
	Usage(ctx context.Context, userID int64) (*Usage, error)

	// Charge locks the user's quota, re-reads usage and passes it to decide.
	// When the decision allows, it increments the chosen bucket and appends
	// entry in the same transaction. A denial writes nothing.
	Charge(ctx context.Context, userID int64, entry *airequest.AIRequest, decide func(Usage) Decision) (Decision, error)
}

// Engine evaluates and commits quota decisions against a Ledger
type Engine struct {
	ledger Ledger
	policy Policy
	now    func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine
func NewEngine(ledger Ledger, policy Policy, opts ...Option) *Engine {
	e := &Engine{ledger: ledger, policy: policy, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check evaluates the user's current state without charging anything
func (e *Engine) Check(ctx context.Context, userID int64) (Decision, error) {
	u, err := e.ledger.Usage(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	return e.policy.Evaluate(*u, e.now()), nil
}

// Commit re-evaluates under the ledger's lock and charges exactly one bucket
// together with the log entry. It fails with QuotaExceeded if quota ran out
// since Check.
func (e *Engine) Commit(ctx context.Context, userID int64, entry *airequest.AIRequest) (Decision, error) {
	now := e.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	d, err := e.ledger.Charge(ctx, userID, entry, func(u Usage) Decision {
		return e.policy.Evaluate(u, now)
	})
	if err != nil {
		return Decision{}, err
	}
	if !d.Allowed {
		return d, errors.QuotaExceeded()
	}
	return d, nil
}
