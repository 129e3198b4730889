package user

import "time"

// User is an account keyed by phone number
type User struct {
	ID               int64      `json:"id"`
	Phone            string     `json:"phone"`
	VerificationCode *string    `json:"-"`
	CodeExpiresAt    *time.Time `json:"-"`
	IsVerified       bool       `json:"isVerified"`
	FreeRequestsUsed int        `json:"freeRequestsUsed"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// HasCode reports whether a one-time code has ever been issued
func (u *User) HasCode() bool {
	return u.VerificationCode != nil && u.CodeExpiresAt != nil
}

// CodeIssue is the result of requesting a one-time code
type CodeIssue struct {
	UserID    int64
	Phone     string
	Code      string
	ExpiresAt time.Time
}

// Verification is the result of a successful code check
type Verification struct {
	UserID int64
	Phone  string
	Token  string
}
