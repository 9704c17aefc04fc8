package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"zenith-fieldservice/internal/app"
	"zenith-fieldservice/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	users     core.UserService
	log       *logrus.Logger
	jwtSecret string
	router    chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, users core.UserService, log *logrus.Logger, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		users:     users,
		log:       log,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	// Health (public)
	r.Get("/api/health", h.health)

	// Auth (public)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// Protected API routes (401 JSON if unauthenticated). 1 MB body limit to
	// prevent unbounded request abuse.
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20))

		r.Get("/api/auth/me", h.me)

		// Master data
		r.Get("/api/customers", h.apiListCustomers)
		r.Post("/api/customers", h.apiCreateCustomer)
		r.Get("/api/projects", h.apiListProjects)
		r.Post("/api/projects", h.apiCreateProject)
		r.Get("/api/vendors", h.apiListVendors)
		r.Post("/api/vendors", h.apiCreateVendor)
		r.Get("/api/parts", h.apiListParts)
		r.Post("/api/parts", h.apiCreatePart)
		r.Get("/api/cost-types", h.apiListCostTypes)
		r.Post("/api/cost-types", h.apiCreateCostType)
		r.Get("/api/cost-types/{id}/cost-codes", h.apiListCostCodes)
		r.Post("/api/cost-codes", h.apiCreateCostCode)

		// Work orders
		r.Get("/api/work-orders", h.apiListWorkOrders)
		r.Post("/api/work-orders", h.apiCreateWorkOrder)
		r.Get("/api/work-orders/{id}", h.apiGetWorkOrder)
		r.Post("/api/work-orders/{id}/transition", h.apiTransitionWorkOrder)
		r.Post("/api/work-orders/{id}/schedule", h.apiScheduleWorkOrder)
		r.Get("/api/work-orders/{id}/history", h.apiWorkOrderHistory)
		r.Get("/api/work-orders/{id}/close-out", h.apiEvaluateCloseOut)

		// Time entries
		r.Post("/api/work-orders/{id}/time-entries", h.apiClockIn)
		r.Get("/api/work-orders/{id}/time-entries", h.apiListTimeEntries)
		r.Post("/api/time-entries/{id}/clock-out", h.apiClockOut)

		// Receipts and allocation
		r.Get("/api/receipts", h.apiListReceipts)
		r.Post("/api/receipts", h.apiCreateReceipt)
		r.Get("/api/receipts/{id}", h.apiGetReceipt)
		r.Get("/api/receipts/{id}/allocation", h.apiReceiptAllocationStatus)
		r.Get("/api/receipts/{id}/lines", h.apiLineAllocationStatuses)
		r.Put("/api/receipt-lines/{id}", h.apiUpdateReceiptLine)
		r.Post("/api/receipt-lines/{id}/allocate", h.apiAllocateLine)
		r.Post("/api/receipts/bulk-allocate", h.apiBulkAllocate)
		r.Post("/api/receipts/extract", h.apiExtractReceipt)
		r.Post("/api/receipts/confirm-draft", h.apiConfirmDraft)

		// Job costing
		r.Post("/api/job-costs", h.apiCreateManualCost)
		r.Get("/api/{ownerKind}/{ownerID}/job-costs", h.apiListJobCosts)
		r.Get("/api/{ownerKind}/{ownerID}/cost-summary", h.apiCostSummary)
		r.Get("/api/{ownerKind}/{ownerID}/material-usage", h.apiMaterialUsage)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts the {id} URL parameter as an int.
func idParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// ownerParams extracts the {ownerKind}/{ownerID} URL parameters. The kind in
// the path is plural ("projects", "work-orders") and maps to the core's
// owner kinds.
func ownerParams(r *http.Request) (string, int, error) {
	var kind string
	switch chi.URLParam(r, "ownerKind") {
	case "projects":
		kind = string(core.OwnerProject)
	case "work-orders":
		kind = string(core.OwnerWorkOrder)
	default:
		return "", 0, errors.New("owner kind must be 'projects' or 'work-orders'")
	}
	id, err := strconv.Atoi(chi.URLParam(r, "ownerID"))
	if err != nil {
		return "", 0, errors.New("owner id must be numeric")
	}
	return kind, id, nil
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
