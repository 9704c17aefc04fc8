package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"zenith-fieldservice/internal/app"
	"zenith-fieldservice/internal/core"
)

// apiListReceipts handles GET /api/receipts.
func (h *Handler) apiListReceipts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListReceipts(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Receipts)
}

// apiCreateReceipt handles POST /api/receipts.
func (h *Handler) apiCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VendorID    int    `json:"vendor_id"`
		ReceiptDate string `json:"receipt_date"`
		Notes       string `json:"notes"`
		Lines       []struct {
			Description string          `json:"description"`
			Quantity    decimal.Decimal `json:"quantity"`
			UnitCost    decimal.Decimal `json:"unit_cost"`
		} `json:"lines"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	createReq := app.CreateReceiptRequest{
		VendorID:    req.VendorID,
		ReceiptDate: req.ReceiptDate,
		Notes:       req.Notes,
	}
	for _, l := range req.Lines {
		createReq.Lines = append(createReq.Lines, app.ReceiptLineRequest{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
		})
	}

	receipt, err := h.svc.CreateReceipt(r.Context(), createReq)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, receipt)
}

// apiGetReceipt handles GET /api/receipts/{id}.
func (h *Handler) apiGetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "receipt id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	receipt, err := h.svc.GetReceipt(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, receipt)
}

// apiReceiptAllocationStatus handles GET /api/receipts/{id}/allocation.
func (h *Handler) apiReceiptAllocationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "receipt id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	status, err := h.svc.GetReceiptAllocationStatus(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, status)
}

// apiLineAllocationStatuses handles GET /api/receipts/{id}/lines.
func (h *Handler) apiLineAllocationStatuses(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "receipt id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ListLineAllocationStatuses(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Lines)
}

// apiUpdateReceiptLine handles PUT /api/receipt-lines/{id}.
func (h *Handler) apiUpdateReceiptLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "line item id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		Description string          `json:"description"`
		Quantity    decimal.Decimal `json:"quantity"`
		UnitCost    decimal.Decimal `json:"unit_cost"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	line, err := h.svc.UpdateReceiptLine(r.Context(), app.UpdateReceiptLineRequest{
		LineItemID:  id,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, line)
}

// apiAllocateLine handles POST /api/receipt-lines/{id}/allocate.
func (h *Handler) apiAllocateLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "line item id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
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
	result, err := h.svc.AllocateReceiptLine(r.Context(), app.AllocationRequest{
		LineItemID:  id,
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
	writeJSON(w, result)
}

// apiBulkAllocate handles POST /api/receipts/bulk-allocate.
func (h *Handler) apiBulkAllocate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReceiptIDs []int  `json:"receipt_ids"`
		OwnerKind  string `json:"owner_kind"`
		OwnerID    int    `json:"owner_id"`
		CostTypeID *int   `json:"cost_type_id"`
		CostCodeID *int   `json:"cost_code_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.BulkAllocateReceipts(r.Context(), app.BulkAllocationRequest{
		ReceiptIDs: req.ReceiptIDs,
		OwnerKind:  req.OwnerKind,
		OwnerID:    req.OwnerID,
		CostTypeID: req.CostTypeID,
		CostCodeID: req.CostCodeID,
		EnteredBy:  actor(r),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Results)
}

// apiExtractReceipt handles POST /api/receipts/extract.
func (h *Handler) apiExtractReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	draft, err := h.svc.ExtractReceipt(r.Context(), req.Text)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, draft)
}

// apiConfirmDraft handles POST /api/receipts/confirm-draft.
func (h *Handler) apiConfirmDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VendorID int               `json:"vendor_id"`
		Draft    core.ReceiptDraft `json:"draft"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	receipt, err := h.svc.ConfirmReceiptDraft(r.Context(), app.ConfirmDraftRequest{
		VendorID: req.VendorID,
		Draft:    req.Draft,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, receipt)
}
