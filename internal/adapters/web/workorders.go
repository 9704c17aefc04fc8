package web

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"zenith-fieldservice/internal/app"
)

// apiListWorkOrders handles GET /api/work-orders with optional status,
// customer_id and project_id query filters.
func (h *Handler) apiListWorkOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.ListWorkOrdersRequest{Status: q.Get("status")}
	if v := q.Get("customer_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "customer_id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.CustomerID = id
	}
	if v := q.Get("project_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "project_id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.ProjectID = id
	}

	result, err := h.svc.ListWorkOrders(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.WorkOrders)
}

// apiCreateWorkOrder handles POST /api/work-orders.
func (h *Handler) apiCreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID           int             `json:"customer_id"`
		ProjectID            *int            `json:"project_id"`
		AssignedTechnicianID *int            `json:"assigned_technician_id"`
		Location             string          `json:"location"`
		Priority             string          `json:"priority"`
		Description          string          `json:"description"`
		ContractTotal        decimal.Decimal `json:"contract_total"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.svc.CreateWorkOrder(r.Context(), app.CreateWorkOrderRequest{
		CustomerID:           req.CustomerID,
		ProjectID:            req.ProjectID,
		AssignedTechnicianID: req.AssignedTechnicianID,
		Location:             req.Location,
		Priority:             req.Priority,
		Description:          req.Description,
		ContractTotal:        req.ContractTotal,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, order)
}

// apiGetWorkOrder handles GET /api/work-orders/{id}.
func (h *Handler) apiGetWorkOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "work order id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	order, err := h.svc.GetWorkOrder(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

// apiTransitionWorkOrder handles POST /api/work-orders/{id}/transition.
func (h *Handler) apiTransitionWorkOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "work order id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		To     string `json:"to"`
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.svc.TransitionWorkOrder(r.Context(), app.TransitionRequest{
		WorkOrderID: id,
		To:          req.To,
		Reason:      req.Reason,
		Actor:       actor(r),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

// apiScheduleWorkOrder handles POST /api/work-orders/{id}/schedule.
func (h *Handler) apiScheduleWorkOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "work order id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		Date string `json:"date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.svc.ScheduleWorkOrder(r.Context(), app.ScheduleRequest{
		WorkOrderID: id,
		Date:        req.Date,
		Actor:       actor(r),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, order)
}

// apiWorkOrderHistory handles GET /api/work-orders/{id}/history.
func (h *Handler) apiWorkOrderHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "work order id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetWorkOrderHistory(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.History)
}

// apiEvaluateCloseOut handles GET /api/work-orders/{id}/close-out. It is a
// pure read: clients poll it to show close-out readiness before the operator
// commits to the CLOSED transition.
func (h *Handler) apiEvaluateCloseOut(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "work order id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.EvaluateCloseOut(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiClockIn handles POST /api/work-orders/{id}/time-entries.
func (h *Handler) apiClockIn(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "work order id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		TechnicianID int    `json:"technician_id"`
		Notes        string `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.svc.ClockIn(r.Context(), app.ClockInRequest{
		WorkOrderID:  id,
		TechnicianID: req.TechnicianID,
		Notes:        req.Notes,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, entry)
}

// apiListTimeEntries handles GET /api/work-orders/{id}/time-entries.
func (h *Handler) apiListTimeEntries(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "work order id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ListTimeEntries(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}

// apiClockOut handles POST /api/time-entries/{id}/clock-out.
func (h *Handler) apiClockOut(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "time entry id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	entry, err := h.svc.ClockOut(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, entry)
}
