package airequest

import "context"

// Completer turns a question into an answer. Implementations wrap an
// external model provider.
type Completer interface {
	Complete(ctx context.Context, question string) (*Completion, error)
}

// Service answers questions on behalf of users, charging their quota
type Service interface {
	Ask(ctx context.Context, userID int64, question string) (*Answer, error)
}
