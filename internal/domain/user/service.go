package user

import "context"

// AuthService issues and checks phone one-time codes
type AuthService interface {
	// IssueCode generates a code for phone and stores it with an expiry
	IssueCode(ctx context.Context, phone string) (*CodeIssue, error)

	// Verify checks code against the one stored for phone
	Verify(ctx context.Context, phone, code string) (*Verification, error)
}
