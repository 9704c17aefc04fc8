package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"zenith-fieldservice/internal/app"
)

// apiCreateManualCost handles POST /api/job-costs.
func (h *Handler) apiCreateManualCost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerKind   string          `json:"owner_kind"`
		OwnerID     int             `json:"owner_id"`
		CostTypeID  *int            `json:"cost_type_id"`
		CostCodeID  *int            `json:"cost_code_id"`
		PartID      *int            `json:"part_id"`
		Description string          `json:"description"`
		Quantity    decimal.Decimal `json:"quantity"`
		UnitCost    decimal.Decimal `json:"unit_cost"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.svc.CreateManualCost(r.Context(), app.ManualCostRequest{
		OwnerKind:   req.OwnerKind,
		OwnerID:     req.OwnerID,
		CostTypeID:  req.CostTypeID,
		CostCodeID:  req.CostCodeID,
		PartID:      req.PartID,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		EnteredBy:   actor(r),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, entry)
}

// apiListJobCosts handles GET /api/{ownerKind}/{ownerID}/job-costs.
func (h *Handler) apiListJobCosts(w http.ResponseWriter, r *http.Request) {
	kind, id, err := ownerParams(r)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ListJobCosts(r.Context(), kind, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}

// apiCostSummary handles GET /api/{ownerKind}/{ownerID}/cost-summary.
func (h *Handler) apiCostSummary(w http.ResponseWriter, r *http.Request) {
	kind, id, err := ownerParams(r)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	summary, err := h.svc.GetCostSummary(r.Context(), kind, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// apiMaterialUsage handles GET /api/{ownerKind}/{ownerID}/material-usage.
func (h *Handler) apiMaterialUsage(w http.ResponseWriter, r *http.Request) {
	kind, id, err := ownerParams(r)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetMaterialUsage(r.Context(), kind, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Usage)
}
