package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pulseai/pulseai/internal/api/dto"
	"github.com/pulseai/pulseai/internal/api/middleware"
	"github.com/pulseai/pulseai/internal/domain/profile"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
)

// UserIDHeader carries the user id for clients that cannot set a query
const UserIDHeader = "X-User-Id"

// ProfileHandler serves the account summary
type ProfileHandler struct {
	service profile.Service
	logger  *logger.Logger
}

func NewProfileHandler(service profile.Service, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  log,
	}
}

// Get returns the profile of the user named by the userId query, the
// X-User-Id header or the bearer token, in that order
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("userId"))
	if raw == "" {
		raw = strings.TrimSpace(r.Header.Get(UserIDHeader))
	}

	var userID int64
	if raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, r, h.logger, errors.Validation("userId is required"))
			return
		}
		userID = id
	}
	userID = resolveUserID(r, userID)

	middleware.AddLogField(r, "user_id", userID)

	p, err := h.service.Get(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToProfileResponse(p))
}
