package dto

import "github.com/pulseai/pulseai/internal/domain/user"

// AuthRequest requests a code when Code is empty and verifies it otherwise
type AuthRequest struct {
	Phone string `json:"phone" validate:"notblank"`
	Code  string `json:"code,omitempty"`
}

// CodeSentResponse is returned after a code was issued
type CodeSentResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// VerifyResponse is returned after a successful verification
type VerifyResponse struct {
	Success bool   `json:"success"`
	UserID  int64  `json:"userId"`
	Phone   string `json:"phone"`
	Token   string `json:"token,omitempty"`
}

// ToCodeSentResponse converts an issued code
func ToCodeSentResponse(c *user.CodeIssue) CodeSentResponse {
	return CodeSentResponse{Message: "Code sent", Code: c.Code}
}

// ToVerifyResponse converts a verification
func ToVerifyResponse(v *user.Verification) VerifyResponse {
	return VerifyResponse{Success: true, UserID: v.UserID, Phone: v.Phone, Token: v.Token}
}
