package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// Headers the public flow routes accept from browsers
var flowAllowedHeaders = []string{"Content-Type", "X-User-Id", "Authorization"}

// CORS returns the go-chi/cors middleware used for the service routes
// (plans, health, metrics)
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodOptions,
		},
		AllowedHeaders: append([]string{"Accept", RequestIDHeader}, flowAllowedHeaders...),
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	})
}

// FlowCORS sets the wildcard CORS headers the flow routes send on every
// response and answers OPTIONS with an empty 200, with or without an
// Origin header
func FlowCORS(methods ...string) func(http.Handler) http.Handler {
	allowMethods := strings.Join(append(methods, http.MethodOptions), ", ")
	allowHeaders := strings.Join(flowAllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
