package postgres

import (
	"context"
	"database/sql"

	"github.com/pulseai/pulseai/internal/domain/airequest"
	"github.com/pulseai/pulseai/internal/pkg/errors"
)

// AIRequestRepository implements airequest.Repository
type AIRequestRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewAIRequestRepository creates a new request log repository
func NewAIRequestRepository(db *sql.DB, d Dialect) airequest.Repository {
	return &AIRequestRepository{db: db, dialect: d}
}

// Stats returns the request count and token sum for a user
func (r *AIRequestRepository) Stats(ctx context.Context, userID int64) (*airequest.Stats, error) {
	query := r.dialect.Rebind(`
		SELECT COUNT(*), COALESCE(SUM(tokens_used), 0)
		FROM ai_requests WHERE user_id = ?`)

	var s airequest.Stats
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.TotalRequests, &s.TotalTokens); err != nil {
		return nil, errors.DatabaseError("Failed to aggregate requests", err)
	}
	return &s, nil
}

// ListByUser returns the newest requests first
func (r *AIRequestRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*airequest.AIRequest, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.dialect.Rebind(`
		SELECT id, user_id, question, answer, tokens_used, created_at
		FROM ai_requests
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list requests", err)
	}
	defer rows.Close()

	var out []*airequest.AIRequest
	for rows.Next() {
		var a airequest.AIRequest
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.UserID, &a.Question, &a.Answer, &a.TokensUsed, &createdAt); err != nil {
			return nil, errors.DatabaseError("Failed to scan request", err)
		}
		a.CreatedAt = fromUnix(createdAt)
		out = append(out, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate requests", err)
	}
	return out, nil
}

func insertAIRequest(ctx context.Context, q querier, d Dialect, a *airequest.AIRequest) error {
	query := d.Rebind(`
		INSERT INTO ai_requests (user_id, question, answer, tokens_used, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	return q.QueryRowContext(ctx, query,
		a.UserID, a.Question, a.Answer, a.TokensUsed, toUnix(a.CreatedAt),
	).Scan(&a.ID)
}

