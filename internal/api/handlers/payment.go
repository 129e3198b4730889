package handlers

import (
	"net/http"

	"github.com/pulseai/pulseai/internal/api/dto"
	"github.com/pulseai/pulseai/internal/api/middleware"
	"github.com/pulseai/pulseai/internal/domain/payment"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/validator"
)

// PaymentHandler opens checkouts and receives gateway notifications
type PaymentHandler struct {
	service   payment.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewPaymentHandler(service payment.Service, log *logger.Logger, val *validator.Validator) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// Create opens a checkout. The gateway may also post notifications here,
// so a body carrying an event is handled as a webhook.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var envelope dto.PaymentEnvelope
	if err := decodeJSON(body, &envelope); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if envelope.Event != "" {
		h.handleWebhook(w, r, body)
		return
	}

	var req dto.CheckoutRequest
	if err := decodeJSON(body, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	req.UserID = dto.UserID(resolveUserID(r, req.UserID.Int64()))

	if errs := h.validator.Validate(req); len(errs) > 0 {
		respondError(w, r, h.logger, errors.Validation("userId and planType are required"))
		return
	}

	middleware.AddLogField(r, "user_id", req.UserID.Int64())

	checkout, err := h.service.CreateCheckout(r.Context(), req.UserID.Int64(), req.PlanType)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToCheckoutResponse(checkout))
}

// Webhook receives gateway notifications
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.handleWebhook(w, r, body)
}

func (h *PaymentHandler) handleWebhook(w http.ResponseWriter, r *http.Request, body []byte) {
	var req dto.WebhookRequest
	if err := decodeJSON(body, &req); err != nil {
		h.logger.Warn("Undecodable webhook body")
		respondError(w, r, h.logger, err)
		return
	}

	status, err := h.service.HandleWebhook(r.Context(), req.ToNotification())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.WebhookResponse{Status: status})
}
