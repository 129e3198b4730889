package airequest

import "time"

// AIRequest is an append-only log row for an answered question
type AIRequest struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	TokensUsed int       `json:"tokensUsed"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Stats aggregates a user's request log
type Stats struct {
	TotalRequests int64 `json:"totalRequests"`
	TotalTokens   int64 `json:"totalTokens"`
}

// Completion is what the provider returned for one question
type Completion struct {
	Answer     string
	TokensUsed int
}

// Answer is the outcome of an admitted request
type Answer struct {
	Text         string
	TokensUsed   int
	RequestsLeft int
	Bucket       string
}
