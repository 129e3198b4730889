package services

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pulseai/pulseai/internal/auth"
	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/user"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/repository/postgres"
	"github.com/pulseai/pulseai/internal/testutil"
)

var sixDigits = regexp.MustCompile(`^[1-9][0-9]{5}$`)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:   "test-secret",
		TokenExpiry: time.Hour,
		CodeTTL:     5 * time.Minute,
		CodeLength:  6,
	}
}

func TestAuthService_IssueCode(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	issuedAt := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	service := NewAuthService(repo, testAuthConfig(), log, WithAuthClock(func() time.Time { return issuedAt }))

	tests := []struct {
		name      string
		phone     string
		wantPhone string
		wantErr   string
	}{
		{name: "new phone", phone: "+79990000000", wantPhone: "+79990000000"},
		{name: "surrounding spaces are trimmed", phone: "  +79990000001 ", wantPhone: "+79990000001"},
		{name: "blank phone", phone: "   ", wantErr: errors.ErrCodeValidation},
		{name: "empty phone", phone: "", wantErr: errors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue, err := service.IssueCode(context.Background(), tt.phone)
			if tt.wantErr != "" {
				if !errors.HasCode(err, tt.wantErr) {
					t.Fatalf("IssueCode() error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("IssueCode() error = %v", err)
			}

			if !sixDigits.MatchString(issue.Code) {
				t.Errorf("Code = %q, want 6 digits", issue.Code)
			}
			if issue.Phone != tt.wantPhone || issue.UserID == 0 {
				t.Errorf("IssueCode() = %+v", issue)
			}
			if !issue.ExpiresAt.Equal(issuedAt.Add(5 * time.Minute)) {
				t.Errorf("ExpiresAt = %v, want issue time + 5m", issue.ExpiresAt)
			}

			stored, _ := repo.GetByPhone(context.Background(), tt.wantPhone)
			if stored == nil || *stored.VerificationCode != issue.Code {
				t.Errorf("stored code does not match issued code")
			}
		})
	}
}

func TestAuthService_IssueCodeKeepsCodeOutOfLogs(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{name: "debug", level: "debug"},
		{name: "info", level: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "auth.log")
			log := logger.New(logger.Config{Level: tt.level, Format: "json", OutputPath: path})
			service := NewAuthService(testutil.NewMockUserRepository(), testAuthConfig(), log)

			issue, err := service.IssueCode(context.Background(), "+79990000000")
			if err != nil {
				t.Fatalf("IssueCode() error = %v", err)
			}

			out, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read log: %v", err)
			}
			if !strings.Contains(string(out), "Verification code issued") {
				t.Fatalf("log output = %q, want the issue line", out)
			}
			standalone := regexp.MustCompile(`(^|\D)` + issue.Code + `(\D|$)`)
			if standalone.Match(out) {
				t.Errorf("log output contains the verification code: %q", out)
			}
		})
	}
}

func TestAuthService_IssueCodeReusesUser(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	service := NewAuthService(repo, testAuthConfig(), logger.New(logger.Config{Level: "error", Format: "json"}))
	ctx := context.Background()

	first, err := service.IssueCode(ctx, "+79990000000")
	if err != nil {
		t.Fatalf("IssueCode() error = %v", err)
	}
	second, err := service.IssueCode(ctx, "+79990000000")
	if err != nil {
		t.Fatalf("IssueCode() error = %v", err)
	}
	if first.UserID != second.UserID {
		t.Errorf("second issue created a new user: %d != %d", second.UserID, first.UserID)
	}
	if len(repo.Users) != 1 {
		t.Errorf("users = %d, want 1", len(repo.Users))
	}
}

func TestAuthService_VerifyTimeline(t *testing.T) {
	issuedAt := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		after        time.Duration
		wrongCode    bool
		wantErr      string
		wantVerified bool
	}{
		{name: "correct code at T+4m", after: 4 * time.Minute, wantVerified: true},
		{name: "correct code at exactly T+5m", after: 5 * time.Minute, wantVerified: true},
		{name: "correct code at T+6m is expired", after: 6 * time.Minute, wantErr: errors.ErrCodeCodeExpired},
		{name: "wrong code at T+1m", after: time.Minute, wrongCode: true, wantErr: errors.ErrCodeInvalidCode},
		{name: "wrong code after expiry reports expiry", after: 10 * time.Minute, wrongCode: true, wantErr: errors.ErrCodeCodeExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewMockUserRepository()
			log := logger.New(logger.Config{Level: "error", Format: "json"})
			now := issuedAt
			service := NewAuthService(repo, testAuthConfig(), log, WithAuthClock(func() time.Time { return now }))
			ctx := context.Background()

			issue, err := service.IssueCode(ctx, "+79990000000")
			if err != nil {
				t.Fatalf("IssueCode() error = %v", err)
			}

			code := issue.Code
			if tt.wrongCode {
				code = "000000"
			}

			now = issuedAt.Add(tt.after)
			v, err := service.Verify(ctx, "+79990000000", code)

			if tt.wantErr != "" {
				if !errors.HasCode(err, tt.wantErr) {
					t.Fatalf("Verify() error = %v, want %s", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}

			stored, _ := repo.GetByID(ctx, issue.UserID)
			if stored.IsVerified != tt.wantVerified {
				t.Errorf("IsVerified = %v, want %v", stored.IsVerified, tt.wantVerified)
			}

			if tt.wantErr == "" {
				if v.UserID != issue.UserID || v.Phone != "+79990000000" {
					t.Errorf("Verify() = %+v", v)
				}
				claims, err := auth.ParseClaims(v.Token, "test-secret")
				if err != nil {
					t.Fatalf("token does not parse: %v", err)
				}
				if claims.UserID != issue.UserID {
					t.Errorf("token user = %d, want %d", claims.UserID, issue.UserID)
				}
				if stored.VerificationCode == nil {
					t.Error("Verify() cleared the stored code")
				}
			}
		})
	}
}

func TestAuthService_ExpiryBoundaryOnStore(t *testing.T) {
	issuedAt := time.Date(2025, 2, 1, 10, 0, 0, 987654321, time.UTC)

	tests := []struct {
		name    string
		after   time.Duration
		wantErr string
	}{
		{name: "exactly at expiry", after: 5 * time.Minute},
		{name: "one millisecond past expiry", after: 5*time.Minute + time.Millisecond, wantErr: errors.ErrCodeCodeExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := postgres.NewUserRepository(testutil.NewTestDB(t), postgres.SQLite)
			now := issuedAt
			service := NewAuthService(repo, testAuthConfig(), logger.New(logger.Config{Level: "error", Format: "json"}),
				WithAuthClock(func() time.Time { return now }))

			issue, err := service.IssueCode(context.Background(), "+79990000000")
			if err != nil {
				t.Fatalf("IssueCode() error = %v", err)
			}

			now = issuedAt.Add(tt.after)
			_, err = service.Verify(context.Background(), "+79990000000", issue.Code)
			if tt.wantErr == "" && err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if tt.wantErr != "" && !errors.HasCode(err, tt.wantErr) {
				t.Fatalf("Verify() error = %v, want %s", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_VerifyErrors(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	repo.Add(&user.User{Phone: "+79991234567"})
	service := NewAuthService(repo, testAuthConfig(), logger.New(logger.Config{Level: "error", Format: "json"}))

	tests := []struct {
		name    string
		phone   string
		code    string
		wantErr string
	}{
		{name: "unknown phone", phone: "+70000000000", code: "123456", wantErr: errors.ErrCodeNotFound},
		{name: "no code ever issued", phone: "+79991234567", code: "123456", wantErr: errors.ErrCodeCodeExpired},
		{name: "blank phone", phone: " ", code: "123456", wantErr: errors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Verify(context.Background(), tt.phone, tt.code)
			if !errors.HasCode(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %s", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateCode(t *testing.T) {
	for _, n := range []int{4, 6, 9} {
		for i := 0; i < 50; i++ {
			code, err := generateCode(n)
			if err != nil {
				t.Fatalf("generateCode(%d) error = %v", n, err)
			}
			if len(code) != n || code[0] == '0' {
				t.Fatalf("generateCode(%d) = %q", n, code)
			}
		}
	}
}
