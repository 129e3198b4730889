package handlers

import (
	"net/http"

	"github.com/pulseai/pulseai/internal/api/dto"
	"github.com/pulseai/pulseai/internal/api/middleware"
	"github.com/pulseai/pulseai/internal/domain/user"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/validator"
)

// AuthHandler serves the phone code flow
type AuthHandler struct {
	service   user.AuthService
	logger    *logger.Logger
	validator *validator.Validator
}

func NewAuthHandler(service user.AuthService, log *logger.Logger, val *validator.Validator) *AuthHandler {
	return &AuthHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// Auth issues a code when the body has none and verifies it otherwise
func (h *AuthHandler) Auth(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req dto.AuthRequest
	if err := decodeJSON(body, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if errs := h.validator.Validate(req); len(errs) > 0 {
		respondError(w, r, h.logger, errors.Validation("Phone is required"))
		return
	}

	if req.Code == "" {
		issue, err := h.service.IssueCode(r.Context(), req.Phone)
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		respondJSON(w, http.StatusOK, dto.ToCodeSentResponse(issue))
		return
	}

	v, err := h.service.Verify(r.Context(), req.Phone, req.Code)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	middleware.AddLogField(r, "user_id", v.UserID)
	respondJSON(w, http.StatusOK, dto.ToVerifyResponse(v))
}
