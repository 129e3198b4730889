package payment

import "time"

// Payment statuses
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusCanceled  = "canceled"
)

// Gateway event types
const (
	EventSucceeded = "payment.succeeded"
)

// Payment is a checkout started by a user for one plan
type Payment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	PaymentID string    `json:"paymentId"` // gateway id
	Amount    float64   `json:"amount"`
	PlanType  string    `json:"planType"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Checkout is returned to the client after a payment was created
type Checkout struct {
	PaymentURL string
	PaymentID  string
}

// Notification is a webhook delivery from the gateway
type Notification struct {
	Type   string
	Event  string
	Object NotificationObject
}

// NotificationObject is the payment snapshot carried by a notification
type NotificationObject struct {
	ID       string
	Status   string
	Paid     bool
	Metadata map[string]string
}

// Webhook outcomes reported back to the gateway
const (
	WebhookOK      = "ok"
	WebhookIgnored = "ignored"
)
