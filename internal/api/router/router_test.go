package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pulseai/pulseai/internal/api/handlers"
	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/plan"
	"github.com/pulseai/pulseai/internal/entitlement"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/validator"
	"github.com/pulseai/pulseai/internal/repository/postgres"
	"github.com/pulseai/pulseai/internal/services"
	"github.com/pulseai/pulseai/internal/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			AllowedOrigins: []string{"https://pulseai.ru"},
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
		},
		Auth: config.AuthConfig{
			JWTSecret:    "secret",
			TokenExpiry:  time.Hour,
			CodeTTL:      5 * time.Minute,
			CodeLength:   6,
			OTPRateLimit: 1000,
			OTPBurst:     1000,
		},
		Payment: config.PaymentConfig{Currency: "RUB", DescriptionFmt: "PulseAI - %s"},
	}

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	val := validator.New()
	db := testutil.NewTestDB(t)

	users := postgres.NewUserRepository(db, postgres.SQLite)
	subs := postgres.NewSubscriptionRepository(db, postgres.SQLite)
	payments := postgres.NewPaymentRepository(db, postgres.SQLite)
	requests := postgres.NewAIRequestRepository(db, postgres.SQLite)
	engine := entitlement.NewEngine(postgres.NewLedgerRepository(db, postgres.SQLite), entitlement.DefaultPolicy())
	catalog := plan.Default()

	h := &Handlers{
		Health:  handlers.NewHealthHandler(db, log),
		Auth:    handlers.NewAuthHandler(services.NewAuthService(users, cfg.Auth, log), log, val),
		AI:      handlers.NewAIHandler(services.NewAIService(users, engine, testutil.NewMockCompleter("42", 7), time.Second, log), log, val),
		Payment: handlers.NewPaymentHandler(services.NewPaymentService(payments, users, testutil.NewMockGateway(), catalog, cfg.Payment, log), log, val),
		Profile: handlers.NewProfileHandler(services.NewProfileService(users, subs, requests, payments, entitlement.DefaultPolicy(), log), log),
		Plans:   handlers.NewPlanHandler(catalog),
	}

	return New(cfg, log, h, NewLimiters(cfg))
}

func TestRouter_Preflight(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		path        string
		wantMethods string
	}{
		{path: "/api/ai", wantMethods: "POST, OPTIONS"},
		{path: "/api/auth", wantMethods: "POST, OPTIONS"},
		{path: "/api/payment", wantMethods: "POST, OPTIONS"},
		{path: "/api/payment/webhook", wantMethods: "POST, OPTIONS"},
		{path: "/api/profile", wantMethods: "GET, OPTIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, tt.path, nil))

			if rr.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rr.Code)
			}
			if rr.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", rr.Body.String())
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("Allow-Origin = %q", got)
			}
			if got := rr.Header().Get("Access-Control-Allow-Methods"); got != tt.wantMethods {
				t.Errorf("Allow-Methods = %q, want %q", got, tt.wantMethods)
			}
			if got := rr.Header().Get("Access-Control-Max-Age"); got != "86400" {
				t.Errorf("Max-Age = %q", got)
			}
		})
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/api/ai"},
		{method: http.MethodPut, path: "/api/auth"},
		{method: http.MethodDelete, path: "/api/payment"},
		{method: http.MethodPost, path: "/api/profile"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			if rr.Code != http.StatusMethodNotAllowed {
				t.Fatalf("status = %d, want 405", rr.Code)
			}
			var body map[string]interface{}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["error"] != "Method not allowed" {
				t.Errorf("error = %v", body["error"])
			}
		})
	}
}

func TestRouter_EndToEnd(t *testing.T) {
	r := newTestRouter(t)

	post := func(path, body string) map[string]interface{} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		if rr.Code != http.StatusOK {
			t.Fatalf("POST %s status = %d, body %s", path, rr.Code, rr.Body.String())
		}
		if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("POST %s missing CORS header", path)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("POST %s missing request id", path)
		}
		var out map[string]interface{}
		if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return out
	}

	sent := post("/api/auth", `{"phone":"+79990000000"}`)
	verified := post("/api/auth", `{"phone":"+79990000000","code":"`+sent["code"].(string)+`"}`)
	if verified["success"] != true {
		t.Fatalf("verify = %v", verified)
	}
	token := verified["token"].(string)

	// the bearer token stands in for a missing userId
	req := httptest.NewRequest(http.MethodPost, "/api/ai", strings.NewReader(`{"question":"six times seven?"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("ask status = %d, body %s", rr.Code, rr.Body.String())
	}
	var answer map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&answer)
	if answer["answer"] != "42" || answer["requestsLeft"] != float64(9) {
		t.Errorf("answer = %v", answer)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/profile?userId=1", nil))
	var profile map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&profile)
	stats, _ := profile["stats"].(map[string]interface{})
	if rr.Code != http.StatusOK || profile["freeRequestsUsed"] != float64(1) || stats["totalTokens"] != float64(7) {
		t.Errorf("profile = %d %v", rr.Code, profile)
	}
}

func TestRouter_ServiceRoutes(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/healthz", wantStatus: http.StatusOK},
		{path: "/readyz", wantStatus: http.StatusOK},
		{path: "/api/plans", wantStatus: http.StatusOK},
		{path: "/metrics", wantStatus: http.StatusOK},
		{path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Origin", "https://pulseai.ru")
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rr.Header().Get("Access-Control-Allow-Origin") != "https://pulseai.ru" {
				t.Errorf("Allow-Origin = %q", rr.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
