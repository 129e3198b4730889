package handlers

import (
	"net/http"

	"github.com/pulseai/pulseai/internal/api/dto"
	"github.com/pulseai/pulseai/internal/domain/plan"
)

// PlanHandler lists the plan catalogue
type PlanHandler struct {
	catalog *plan.Catalog
}

func NewPlanHandler(catalog *plan.Catalog) *PlanHandler {
	return &PlanHandler{catalog: catalog}
}

// List returns every plan ordered by price
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"plans": dto.ToPlanDTOs(h.catalog.All()),
	})
}
