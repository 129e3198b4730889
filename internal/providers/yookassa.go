package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/payment"
)

const defaultYooKassaURL = "https://api.yookassa.ru/v3"

type ykAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ykConfirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type ykCreatePaymentRequest struct {
	Amount       ykAmount          `json:"amount"`
	Capture      bool              `json:"capture"`
	Confirmation ykConfirmation    `json:"confirmation"`
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type ykPayment struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Paid         bool              `json:"paid"`
	Amount       ykAmount          `json:"amount"`
	Confirmation *ykConfirmation   `json:"confirmation,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

func (p *ykPayment) toGateway() *payment.GatewayPayment {
	gp := &payment.GatewayPayment{
		ID:       p.ID,
		Status:   p.Status,
		Paid:     p.Paid,
		Metadata: p.Metadata,
	}
	if p.Confirmation != nil {
		gp.ConfirmationURL = p.Confirmation.ConfirmationURL
	}
	return gp
}

// YooKassaClient talks to the YooKassa v3 REST API with basic auth
type YooKassaClient struct {
	ShopID     string
	SecretKey  string
	APIURL     string
	HTTPClient *http.Client
}

// NewYooKassaClient creates a gateway client from config
func NewYooKassaClient(cfg config.PaymentConfig) *YooKassaClient {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultYooKassaURL
	}
	return &YooKassaClient{
		ShopID:     cfg.ShopID,
		SecretKey:  cfg.SecretKey,
		APIURL:     strings.TrimRight(apiURL, "/"),
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// CreatePayment opens a captured redirect payment
func (c *YooKassaClient) CreatePayment(ctx context.Context, req payment.CreateRequest) (*payment.GatewayPayment, error) {
	body, err := json.Marshal(ykCreatePaymentRequest{
		Amount:  ykAmount{Value: req.Amount, Currency: req.Currency},
		Capture: true,
		Confirmation: ykConfirmation{
			Type:      "redirect",
			ReturnURL: req.ReturnURL,
		},
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var p ykPayment
	if err := c.do(ctx, http.MethodPost, "/payments", body, &p); err != nil {
		return nil, err
	}
	if p.ID == "" || p.Confirmation == nil || p.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("yookassa response without payment id or confirmation url")
	}
	return p.toGateway(), nil
}

// GetPayment fetches the gateway's current view of a payment
func (c *YooKassaClient) GetPayment(ctx context.Context, id string) (*payment.GatewayPayment, error) {
	var p ykPayment
	if err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return p.toGateway(), nil
}

func (c *YooKassaClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if method == http.MethodPost {
		req.Header.Set("Idempotence-Key", uuid.New().String())
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.ShopID, c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api error: %s (status: %d)", string(respBody), resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
