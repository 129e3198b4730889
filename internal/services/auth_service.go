package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/pulseai/pulseai/internal/auth"
	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/user"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/metrics"
)

// AuthService implements user.AuthService
type AuthService struct {
	repo   user.Repository
	cfg    config.AuthConfig
	logger *logger.Logger
	now    func() time.Time
}

// AuthOption configures an AuthService
type AuthOption func(*AuthService)

// WithAuthClock overrides the time source used for code expiry
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService creates a new auth service
func NewAuthService(repo user.Repository, cfg config.AuthConfig, log *logger.Logger, opts ...AuthOption) user.AuthService {
	s := &AuthService{
		repo:   repo,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueCode generates a fresh code for phone, creating the user if needed
func (s *AuthService) IssueCode(ctx context.Context, phone string) (*user.CodeIssue, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, errors.Validation("Phone is required")
	}

	code, err := generateCode(s.cfg.CodeLength)
	if err != nil {
		return nil, errors.Internal("Failed to generate code", err)
	}

	expiresAt := s.now().Add(s.cfg.CodeTTL).UTC()
	u, err := s.repo.UpsertCode(ctx, phone, code, expiresAt)
	if err != nil {
		metrics.RecordOTP("issue", "error")
		s.logger.ErrorWithErr(err, "Failed to store verification code")
		return nil, err
	}

	metrics.RecordOTP("issue", "ok")
	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"phone":   phone,
	}).Info("Verification code issued")

	return &user.CodeIssue{
		UserID:    u.ID,
		Phone:     phone,
		Code:      code,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks code against the stored one. The checks run in a fixed
// order: unknown phone, then expiry, then mismatch.
func (s *AuthService) Verify(ctx context.Context, phone, code string) (*user.Verification, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" {
		return nil, errors.Validation("Phone is required")
	}

	u, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		metrics.RecordOTP("verify", "unknown_phone")
		return nil, err
	}

	if !u.HasCode() || s.now().After(*u.CodeExpiresAt) {
		metrics.RecordOTP("verify", "expired")
		return nil, errors.CodeExpired()
	}

	if subtle.ConstantTimeCompare([]byte(*u.VerificationCode), []byte(code)) != 1 {
		metrics.RecordOTP("verify", "invalid")
		s.logger.With("user_id", u.ID).Warn("Invalid verification code")
		return nil, errors.InvalidCode()
	}

	if err := s.repo.MarkVerified(ctx, u.ID); err != nil {
		s.logger.ErrorWithErr(err, "Failed to mark user verified")
		return nil, err
	}

	token, err := auth.MintToken(u.ID, u.Phone, s.cfg.JWTSecret, s.cfg.TokenExpiry)
	if err != nil {
		return nil, errors.Internal("Failed to issue token", err)
	}

	metrics.RecordOTP("verify", "ok")
	s.logger.With("user_id", u.ID).Info("User verified")

	return &user.Verification{
		UserID: u.ID,
		Phone:  u.Phone,
		Token:  token,
	}, nil
}

// generateCode returns a uniformly random decimal code of exactly n digits
// with no leading zero
func generateCode(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))

	v, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("failed to read random digits: %w", err)
	}
	return v.Add(v, low).String(), nil
}
