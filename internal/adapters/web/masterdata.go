package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"zenith-fieldservice/internal/app"
)

// apiListCustomers handles GET /api/customers.
func (h *Handler) apiListCustomers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Customers)
}

// apiCreateCustomer handles POST /api/customers.
func (h *Handler) apiCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code    string `json:"code"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	customer, err := h.svc.CreateCustomer(r.Context(), app.CreateCustomerRequest{
		Code: req.Code, Name: req.Name, Email: req.Email, Phone: req.Phone, Address: req.Address,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, customer)
}

// apiListProjects handles GET /api/projects.
func (h *Handler) apiListProjects(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProjects(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Projects)
}

// apiCreateProject handles POST /api/projects.
func (h *Handler) apiCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID int    `json:"customer_id"`
		Name       string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	project, err := h.svc.CreateProject(r.Context(), app.CreateProjectRequest{
		CustomerID: req.CustomerID, Name: req.Name,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, project)
}

// apiListVendors handles GET /api/vendors.
func (h *Handler) apiListVendors(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListVendors(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Vendors)
}

// apiCreateVendor handles POST /api/vendors.
func (h *Handler) apiCreateVendor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code             string `json:"code"`
		Name             string `json:"name"`
		ContactPerson    string `json:"contact_person"`
		Email            string `json:"email"`
		Phone            string `json:"phone"`
		Address          string `json:"address"`
		PaymentTermsDays int    `json:"payment_terms_days"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	vendor, err := h.svc.CreateVendor(r.Context(), app.CreateVendorRequest{
		Code:             req.Code,
		Name:             req.Name,
		ContactPerson:    req.ContactPerson,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		PaymentTermsDays: req.PaymentTermsDays,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, vendor)
}

// apiListParts handles GET /api/parts.
func (h *Handler) apiListParts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListParts(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Parts)
}

// apiCreatePart handles POST /api/parts.
func (h *Handler) apiCreatePart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
		Name string `json:"name"`
		Unit string `json:"unit"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	part, err := h.svc.CreatePart(r.Context(), app.CreatePartRequest{
		Code: req.Code, Name: req.Name, Unit: req.Unit,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, part)
}

// apiListCostTypes handles GET /api/cost-types.
func (h *Handler) apiListCostTypes(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListCostTypes(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.CostTypes)
}

// apiCreateCostType handles POST /api/cost-types.
func (h *Handler) apiCreateCostType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	costType, err := h.svc.CreateCostType(r.Context(), req.Name)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, costType)
}

// apiListCostCodes handles GET /api/cost-types/{id}/cost-codes. This backs
// the dependent cost-code picker: the client re-fetches whenever the selected
// cost type changes.
func (h *Handler) apiListCostCodes(w http.ResponseWriter, r *http.Request) {
	costTypeID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "cost type id must be numeric", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ListCostCodes(r.Context(), costTypeID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.CostCodes)
}

// apiCreateCostCode handles POST /api/cost-codes.
func (h *Handler) apiCreateCostCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CostTypeID int    `json:"cost_type_id"`
		Code       string `json:"code"`
		Name       string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	costCode, err := h.svc.CreateCostCode(r.Context(), app.CreateCostCodeRequest{
		CostTypeID: req.CostTypeID, Code: req.Code, Name: req.Name,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, costCode)
}
