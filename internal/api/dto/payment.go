package dto

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pulseai/pulseai/internal/domain/payment"
)

// CheckoutRequest starts a payment for a plan
type CheckoutRequest struct {
	UserID   UserID `json:"userId" validate:"gt=0"`
	PlanType string `json:"planType" validate:"notblank"`
}

// CheckoutResponse points the client at the gateway's payment page
type CheckoutResponse struct {
	PaymentURL string `json:"paymentUrl"`
	PaymentID  string `json:"paymentId"`
}

// ToCheckoutResponse converts a checkout
func ToCheckoutResponse(c *payment.Checkout) CheckoutResponse {
	return CheckoutResponse{PaymentURL: c.PaymentURL, PaymentID: c.PaymentID}
}

// PaymentEnvelope peeks at a /api/payment body to tell a webhook delivery
// from a checkout request
type PaymentEnvelope struct {
	Event string `json:"event"`
}

// WebhookRequest is a gateway notification
type WebhookRequest struct {
	Type   string        `json:"type"`
	Event  string        `json:"event"`
	Object WebhookObject `json:"object"`
}

// WebhookObject is the payment snapshot inside a notification
type WebhookObject struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Paid     bool     `json:"paid"`
	Metadata Metadata `json:"metadata"`
}

// WebhookResponse acknowledges a notification
type WebhookResponse struct {
	Status string `json:"status"`
}

// ToNotification converts a decoded webhook body
func (w WebhookRequest) ToNotification() payment.Notification {
	return payment.Notification{
		Type:  w.Type,
		Event: w.Event,
		Object: payment.NotificationObject{
			ID:       w.Object.ID,
			Status:   w.Object.Status,
			Paid:     w.Object.Paid,
			Metadata: map[string]string(w.Object.Metadata),
		},
	}
}

// Metadata is a flat string map that also accepts numbers and booleans as
// values, since clients do not agree on how to encode user_id
type Metadata map[string]string

func (m *Metadata) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := make(Metadata, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		}
	}
	*m = out
	return nil
}
