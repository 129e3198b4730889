package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pulseai/pulseai/internal/auth"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for the token's user ID
	UserIDKey ContextKey = "userID"
	// UserPhoneKey is the context key for the token's phone
	UserPhoneKey ContextKey = "phone"
)

// OptionalAuth attaches the bearer token's identity to the request when a
// valid token is present. Requests without one pass through untouched; the
// flow handlers take the user id from the body or query instead.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr != "" {
				if claims, err := auth.ParseClaims(tokenStr, jwtSecret); err == nil {
					ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
					ctx = context.WithValue(ctx, UserPhoneKey, claims.Phone)
					r = r.WithContext(ctx)
					AddLogField(r, "token_user_id", claims.UserID)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetUserID extracts the token's user ID from the request context
func GetUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(UserIDKey).(int64)
	return userID, ok
}
