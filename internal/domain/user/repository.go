package user

import (
	"context"
	"time"
)

// Repository defines the interface for user data access
type Repository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByPhone retrieves a user by phone number
	GetByPhone(ctx context.Context, phone string) (*User, error)

	// UpsertCode stores a fresh code for phone, creating the user on first sight
	UpsertCode(ctx context.Context, phone, code string, expiresAt time.Time) (*User, error)

	// MarkVerified sets the verified flag
	MarkVerified(ctx context.Context, id int64) error
}
