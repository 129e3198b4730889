package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseai",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pulseai",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pulseai",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseai",
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI requests by charged bucket and outcome",
		},
		[]string{"bucket", "outcome"},
	)

	aiTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulseai",
			Subsystem: "ai",
			Name:      "tokens_total",
			Help:      "Completion tokens reported by the AI provider",
		},
	)

	aiCompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pulseai",
			Subsystem: "ai",
			Name:      "completion_duration_seconds",
			Help:      "Latency of completion provider calls",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
	)

	quotaDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseai",
			Subsystem: "quota",
			Name:      "denials_total",
			Help:      "Requests denied by the entitlement engine",
		},
		[]string{"stage"},
	)

	paymentsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseai",
			Subsystem: "payment",
			Name:      "created_total",
			Help:      "Checkout attempts by plan and status",
		},
		[]string{"plan", "status"},
	)

	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseai",
			Subsystem: "payment",
			Name:      "webhook_events_total",
			Help:      "Gateway webhook events by event type and outcome",
		},
		[]string{"event", "outcome"},
	)

	reconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseai",
			Subsystem: "payment",
			Name:      "reconcile_total",
			Help:      "Pending payments checked by the reconciler, by outcome",
		},
		[]string{"outcome"},
	)

	otpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseai",
			Subsystem: "auth",
			Name:      "otp_total",
			Help:      "One-time code operations by action and outcome",
		},
		[]string{"action", "outcome"},
	)
)

// Middleware records HTTP metrics keyed by the matched chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAIRequest counts an AI request outcome for a bucket
func RecordAIRequest(bucket, outcome string) {
	aiRequestsTotal.WithLabelValues(bucket, outcome).Inc()
}

// RecordCompletion records provider latency and billed tokens
func RecordCompletion(duration time.Duration, tokens int) {
	aiCompletionDuration.Observe(duration.Seconds())
	if tokens > 0 {
		aiTokensTotal.Add(float64(tokens))
	}
}

// RecordQuotaDenial counts a denial at "precheck" or "commit"
func RecordQuotaDenial(stage string) {
	quotaDenialsTotal.WithLabelValues(stage).Inc()
}

// RecordPaymentCreated counts a checkout attempt
func RecordPaymentCreated(plan, status string) {
	paymentsCreatedTotal.WithLabelValues(plan, status).Inc()
}

// RecordWebhook counts a webhook delivery
func RecordWebhook(event, outcome string) {
	webhookEventsTotal.WithLabelValues(event, outcome).Inc()
}

// RecordReconcile counts a pending payment checked against the gateway
func RecordReconcile(outcome string) {
	reconcileTotal.WithLabelValues(outcome).Inc()
}

// RecordOTP counts an issue or verify attempt
func RecordOTP(action, outcome string) {
	otpTotal.WithLabelValues(action, outcome).Inc()
}
