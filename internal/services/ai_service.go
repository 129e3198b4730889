package services

import (
	"context"
	"strings"
	"time"

	"github.com/pulseai/pulseai/internal/domain/airequest"
	"github.com/pulseai/pulseai/internal/domain/user"
	"github.com/pulseai/pulseai/internal/entitlement"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/metrics"
)

// AIService implements airequest.Service
type AIService struct {
	users        user.Repository
	engine       *entitlement.Engine
	completer    airequest.Completer
	logger       *logger.Logger
	writeTimeout time.Duration
}

// NewAIService creates a new AI request service. writeTimeout bounds the
// commit, which runs detached from the caller's cancellation.
func NewAIService(users user.Repository, engine *entitlement.Engine, completer airequest.Completer, writeTimeout time.Duration, log *logger.Logger) airequest.Service {
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	return &AIService{
		users:        users,
		engine:       engine,
		completer:    completer,
		logger:       log,
		writeTimeout: writeTimeout,
	}
}

// Ask answers question if the user still has quota. The provider is only
// called after a passing pre-check, and quota is only charged after the
// provider answered.
func (s *AIService) Ask(ctx context.Context, userID int64, question string) (*airequest.Answer, error) {
	question = strings.TrimSpace(question)
	if userID <= 0 || question == "" {
		return nil, errors.Validation("userId and question are required")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	log := s.logger.With("user_id", userID)

	pre, err := s.engine.Check(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !pre.Allowed {
		metrics.RecordQuotaDenial("precheck")
		metrics.RecordAIRequest(string(entitlement.BucketNone), "denied")
		log.Info("AI request denied, no requests left")
		return nil, errors.QuotaExceeded()
	}

	start := time.Now()
	completion, err := s.completer.Complete(ctx, question)
	if err != nil {
		metrics.RecordAIRequest(string(pre.Bucket), "provider_error")
		log.WithError(err).Error("Completion provider failed")
		return nil, errors.Gateway("AI request failed", err)
	}
	metrics.RecordCompletion(time.Since(start), completion.TokensUsed)

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	entry := &airequest.AIRequest{
		UserID:     userID,
		Question:   question,
		Answer:     completion.Answer,
		TokensUsed: completion.TokensUsed,
	}
	d, err := s.engine.Commit(commitCtx, userID, entry)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeQuotaExceeded) {
			metrics.RecordQuotaDenial("commit")
			metrics.RecordAIRequest(string(entitlement.BucketNone), "denied")
			log.Warn("Quota consumed concurrently, answer discarded")
		} else {
			log.WithError(err).Error("Failed to commit AI request")
		}
		return nil, err
	}

	metrics.RecordAIRequest(string(d.Bucket), "admitted")
	log.WithFields(map[string]interface{}{
		"bucket":        d.Bucket,
		"tokens":        completion.TokensUsed,
		"requests_left": d.RequestsLeft,
	}).Info("AI request admitted")

	return &airequest.Answer{
		Text:         completion.Answer,
		TokensUsed:   completion.TokensUsed,
		RequestsLeft: d.RequestsLeft,
		Bucket:       string(d.Bucket),
	}, nil
}
