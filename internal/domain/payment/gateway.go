package payment

import "context"

// CreateRequest describes a payment to open at the gateway
type CreateRequest struct {
	Amount      string // decimal string, e.g. "299.00"
	Currency    string
	Description string
	ReturnURL   string
	Metadata    map[string]string
}

// GatewayPayment is the gateway's view of a payment
type GatewayPayment struct {
	ID              string
	Status          string
	Paid            bool
	ConfirmationURL string
	Metadata        map[string]string
}

// Gateway is the external payment provider
type Gateway interface {
	CreatePayment(ctx context.Context, req CreateRequest) (*GatewayPayment, error)
	GetPayment(ctx context.Context, id string) (*GatewayPayment, error)
}
