package dto

import "github.com/pulseai/pulseai/internal/domain/airequest"

// AskRequest is a question submitted on behalf of a user
type AskRequest struct {
	UserID   UserID `json:"userId" validate:"gt=0"`
	Question string `json:"question" validate:"notblank"`
}

// AskResponse carries the answer and the remaining quota
type AskResponse struct {
	Answer       string `json:"answer"`
	TokensUsed   int    `json:"tokensUsed"`
	RequestsLeft int    `json:"requestsLeft"`
}

// ToAskResponse converts an answer
func ToAskResponse(a *airequest.Answer) AskResponse {
	return AskResponse{Answer: a.Text, TokensUsed: a.TokensUsed, RequestsLeft: a.RequestsLeft}
}
