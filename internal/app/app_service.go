package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"

	"zenith-fieldservice/internal/ai"
	"zenith-fieldservice/internal/core"
)

var validate = validator.New()

// checkRequest runs struct-tag validation and converts failures into the
// core's ValidationError so adapters map them like any other domain failure.
func checkRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}
	issues := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, fmt.Sprintf("%s failed %q validation", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return &core.ValidationError{Issues: issues}
}

type appService struct {
	pool        *pgxpool.Pool
	customers   core.CustomerService
	projects    core.ProjectService
	vendors     core.VendorService
	parts       core.PartService
	costCodes   core.CostCodeService
	workOrders  core.WorkOrderService
	timeEntries core.TimeEntryService
	receipts    core.ReceiptService
	allocations core.AllocationService
	closeOut    core.CloseOutService
	costing     core.CostingService
	extractor   ai.ExtractorService
}

// Services bundles the core services the facade delegates to.
type Services struct {
	Customers   core.CustomerService
	Projects    core.ProjectService
	Vendors     core.VendorService
	Parts       core.PartService
	CostCodes   core.CostCodeService
	WorkOrders  core.WorkOrderService
	TimeEntries core.TimeEntryService
	Receipts    core.ReceiptService
	Allocations core.AllocationService
	CloseOut    core.CloseOutService
	Costing     core.CostingService
	Extractor   ai.ExtractorService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(pool *pgxpool.Pool, svcs Services) ApplicationService {
	return &appService{
		pool:        pool,
		customers:   svcs.Customers,
		projects:    svcs.Projects,
		vendors:     svcs.Vendors,
		parts:       svcs.Parts,
		costCodes:   svcs.CostCodes,
		workOrders:  svcs.WorkOrders,
		timeEntries: svcs.TimeEntries,
		receipts:    svcs.Receipts,
		allocations: svcs.Allocations,
		closeOut:    svcs.CloseOut,
		costing:     svcs.Costing,
		extractor:   svcs.Extractor,
	}
}

func (s *appService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.customers.CreateCustomer(ctx, req.Code, req.Name, req.Email, req.Phone, req.Address)
}

func (s *appService) ListCustomers(ctx context.Context) (*CustomerListResult, error) {
	customers, err := s.customers.GetCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

func (s *appService) CreateProject(ctx context.Context, req CreateProjectRequest) (*core.Project, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.projects.CreateProject(ctx, req.CustomerID, req.Name)
}

func (s *appService) ListProjects(ctx context.Context) (*ProjectListResult, error) {
	projects, err := s.projects.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	return &ProjectListResult{Projects: projects}, nil
}

func (s *appService) CreateVendor(ctx context.Context, req CreateVendorRequest) (*core.Vendor, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.vendors.CreateVendor(ctx, core.VendorInput{
		Code:             req.Code,
		Name:             req.Name,
		ContactPerson:    req.ContactPerson,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		PaymentTermsDays: req.PaymentTermsDays,
	})
}

func (s *appService) ListVendors(ctx context.Context) (*VendorListResult, error) {
	vendors, err := s.vendors.GetVendors(ctx)
	if err != nil {
		return nil, err
	}
	return &VendorListResult{Vendors: vendors}, nil
}

func (s *appService) CreatePart(ctx context.Context, req CreatePartRequest) (*core.Part, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.parts.CreatePart(ctx, req.Code, req.Name, req.Unit)
}

func (s *appService) ListParts(ctx context.Context) (*PartListResult, error) {
	parts, err := s.parts.GetParts(ctx)
	if err != nil {
		return nil, err
	}
	return &PartListResult{Parts: parts}, nil
}

func (s *appService) CreateCostType(ctx context.Context, name string) (*core.CostType, error) {
	return s.costCodes.CreateCostType(ctx, name)
}

func (s *appService) ListCostTypes(ctx context.Context) (*CostTypeListResult, error) {
	types, err := s.costCodes.ListCostTypes(ctx)
	if err != nil {
		return nil, err
	}
	return &CostTypeListResult{CostTypes: types}, nil
}

func (s *appService) CreateCostCode(ctx context.Context, req CreateCostCodeRequest) (*core.CostCode, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.costCodes.CreateCostCode(ctx, req.CostTypeID, req.Code, req.Name)
}

func (s *appService) ListCostCodes(ctx context.Context, costTypeID int) (*CostCodeListResult, error) {
	codes, err := s.costCodes.ListCostCodes(ctx, costTypeID)
	if err != nil {
		return nil, err
	}
	return &CostCodeListResult{CostCodes: codes}, nil
}

func (s *appService) CreateWorkOrder(ctx context.Context, req CreateWorkOrderRequest) (*core.WorkOrder, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.workOrders.Create(ctx, core.WorkOrderInput{
		CustomerID:           req.CustomerID,
		ProjectID:            req.ProjectID,
		AssignedTechnicianID: req.AssignedTechnicianID,
		Location:             req.Location,
		Priority:             req.Priority,
		Description:          req.Description,
		ContractTotal:        req.ContractTotal,
	})
}

func (s *appService) GetWorkOrder(ctx context.Context, workOrderID int) (*core.WorkOrder, error) {
	return s.workOrders.Get(ctx, workOrderID)
}

func (s *appService) ListWorkOrders(ctx context.Context, req ListWorkOrdersRequest) (*WorkOrderListResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	orders, err := s.workOrders.List(ctx, core.WorkOrderFilter{
		Status:     core.WorkOrderStatus(req.Status),
		CustomerID: req.CustomerID,
		ProjectID:  req.ProjectID,
	})
	if err != nil {
		return nil, err
	}
	return &WorkOrderListResult{WorkOrders: orders}, nil
}

func (s *appService) TransitionWorkOrder(ctx context.Context, req TransitionRequest) (*core.WorkOrder, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.workOrders.Transition(ctx, req.WorkOrderID, core.WorkOrderStatus(req.To), req.Reason, req.Actor)
}

func (s *appService) ScheduleWorkOrder(ctx context.Context, req ScheduleRequest) (*core.WorkOrder, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.workOrders.Schedule(ctx, req.WorkOrderID, req.Date, req.Actor)
}

func (s *appService) GetWorkOrderHistory(ctx context.Context, workOrderID int) (*StatusHistoryResult, error) {
	history, err := s.workOrders.GetStatusHistory(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	return &StatusHistoryResult{WorkOrderID: workOrderID, History: history}, nil
}

func (s *appService) EvaluateCloseOut(ctx context.Context, workOrderID int) (*core.CloseOutResult, error) {
	return s.closeOut.Evaluate(ctx, workOrderID)
}

func (s *appService) ClockIn(ctx context.Context, req ClockInRequest) (*core.TimeEntry, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.timeEntries.ClockIn(ctx, req.WorkOrderID, req.TechnicianID, req.Notes)
}

func (s *appService) ClockOut(ctx context.Context, entryID int) (*core.TimeEntry, error) {
	return s.timeEntries.ClockOut(ctx, entryID)
}

func (s *appService) ListTimeEntries(ctx context.Context, workOrderID int) (*TimeEntryListResult, error) {
	entries, err := s.timeEntries.ListEntries(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	return &TimeEntryListResult{Entries: entries}, nil
}

func (s *appService) CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*core.Receipt, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	lines := make([]core.ReceiptLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.ReceiptLineInput{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
		}
	}
	return s.receipts.CreateReceipt(ctx, core.ReceiptInput{
		VendorID:    req.VendorID,
		ReceiptDate: req.ReceiptDate,
		Notes:       req.Notes,
		Lines:       lines,
	})
}

func (s *appService) GetReceipt(ctx context.Context, receiptID int) (*core.Receipt, error) {
	return s.receipts.GetReceipt(ctx, receiptID)
}

func (s *appService) ListReceipts(ctx context.Context) (*ReceiptListResult, error) {
	receipts, err := s.receipts.GetReceipts(ctx)
	if err != nil {
		return nil, err
	}
	return &ReceiptListResult{Receipts: receipts}, nil
}

func (s *appService) UpdateReceiptLine(ctx context.Context, req UpdateReceiptLineRequest) (*core.ReceiptLineItem, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.receipts.UpdateLineItem(ctx, req.LineItemID, core.ReceiptLineInput{
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
	})
}

func (s *appService) GetReceiptAllocationStatus(ctx context.Context, receiptID int) (*core.ReceiptAllocationStatus, error) {
	return s.allocations.GetReceiptAllocationStatus(ctx, receiptID)
}

func (s *appService) ListLineAllocationStatuses(ctx context.Context, receiptID int) (*LineStatusListResult, error) {
	lines, err := s.allocations.ListLineAllocationStatuses(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	return &LineStatusListResult{ReceiptID: receiptID, Lines: lines}, nil
}

func (s *appService) AllocateReceiptLine(ctx context.Context, req AllocationRequest) (*core.AllocationResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID:  req.LineItemID,
		Owner:       core.CostOwner{Kind: core.OwnerKind(req.OwnerKind), ID: req.OwnerID},
		CostTypeID:  req.CostTypeID,
		CostCodeID:  req.CostCodeID,
		PartID:      req.PartID,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		EnteredBy:   req.EnteredBy,
	})
}

func (s *appService) CreateManualCost(ctx context.Context, req ManualCostRequest) (*core.JobCostEntry, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return s.allocations.CreateManualEntry(ctx, core.ManualEntryInput{
		Owner:       core.CostOwner{Kind: core.OwnerKind(req.OwnerKind), ID: req.OwnerID},
		CostTypeID:  req.CostTypeID,
		CostCodeID:  req.CostCodeID,
		PartID:      req.PartID,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		EnteredBy:   req.EnteredBy,
	})
}

func (s *appService) BulkAllocateReceipts(ctx context.Context, req BulkAllocationRequest) (*BulkAllocationResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	owner := core.CostOwner{Kind: core.OwnerKind(req.OwnerKind), ID: req.OwnerID}
	results, err := s.allocations.BulkAllocateReceipts(ctx, req.ReceiptIDs, owner, req.CostTypeID, req.CostCodeID, req.EnteredBy)
	if err != nil {
		return nil, err
	}
	return &BulkAllocationResult{Results: results}, nil
}

func (s *appService) ListJobCosts(ctx context.Context, ownerKind string, ownerID int) (*JobCostListResult, error) {
	owner := core.CostOwner{Kind: core.OwnerKind(ownerKind), ID: ownerID}
	entries, err := s.allocations.ListEntriesForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &JobCostListResult{Owner: owner, Entries: entries}, nil
}

func (s *appService) GetCostSummary(ctx context.Context, ownerKind string, ownerID int) (*core.CostSummary, error) {
	return s.costing.Summary(ctx, core.CostOwner{Kind: core.OwnerKind(ownerKind), ID: ownerID})
}

func (s *appService) GetMaterialUsage(ctx context.Context, ownerKind string, ownerID int) (*MaterialUsageResult, error) {
	owner := core.CostOwner{Kind: core.OwnerKind(ownerKind), ID: ownerID}
	usage, err := s.costing.MaterialUsage(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &MaterialUsageResult{Owner: owner, Usage: usage}, nil
}

// ExtractReceipt feeds the current part codes to the extractor so it can tag
// lines against the material master.
func (s *appService) ExtractReceipt(ctx context.Context, receiptText string) (*core.ReceiptDraft, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("receipt extraction is not configured")
	}
	if strings.TrimSpace(receiptText) == "" {
		return nil, &core.MissingDataError{Field: "receipt_text"}
	}

	parts, err := s.parts.GetParts(ctx)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, p := range parts {
		fmt.Fprintf(&b, "%s: %s\n", p.Code, p.Name)
	}

	return s.extractor.ExtractReceipt(ctx, receiptText, b.String())
}

func (s *appService) ConfirmReceiptDraft(ctx context.Context, req ConfirmDraftRequest) (*core.Receipt, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	req.Draft.Normalize()
	if err := req.Draft.Validate(); err != nil {
		return nil, err
	}
	return s.receipts.CreateReceipt(ctx, req.Draft.ToReceiptInput(req.VendorID))
}
