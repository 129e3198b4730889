package handlers

import (
	"net/http"

	"github.com/pulseai/pulseai/internal/api/dto"
	"github.com/pulseai/pulseai/internal/api/middleware"
	"github.com/pulseai/pulseai/internal/domain/airequest"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/validator"
)

// AIHandler proxies questions to the model provider
type AIHandler struct {
	service   airequest.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewAIHandler(service airequest.Service, log *logger.Logger, val *validator.Validator) *AIHandler {
	return &AIHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// Ask answers a question if the user still has quota
func (h *AIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req dto.AskRequest
	if err := decodeJSON(body, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	req.UserID = dto.UserID(resolveUserID(r, req.UserID.Int64()))

	if errs := h.validator.Validate(req); len(errs) > 0 {
		respondError(w, r, h.logger, errors.Validation("userId and question are required"))
		return
	}

	middleware.AddLogField(r, "user_id", req.UserID.Int64())

	answer, err := h.service.Ask(r.Context(), req.UserID.Int64(), req.Question)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	middleware.AddLogField(r, "bucket", answer.Bucket)
	respondJSON(w, http.StatusOK, dto.ToAskResponse(answer))
}
