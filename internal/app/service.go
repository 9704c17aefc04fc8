package app

import (
	"context"

	"zenith-fieldservice/internal/core"
)

// ApplicationService is the single interface all adapters call. It decouples
// presentation from business logic. Implementations must contain no display
// logic of any kind.
type ApplicationService interface {
	// CreateCustomer creates a customer master record.
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error)

	// ListCustomers returns all active customers.
	ListCustomers(ctx context.Context) (*CustomerListResult, error)

	// CreateProject creates a project under a customer, assigning a project number.
	CreateProject(ctx context.Context, req CreateProjectRequest) (*core.Project, error)

	// ListProjects returns all active projects.
	ListProjects(ctx context.Context) (*ProjectListResult, error)

	// CreateVendor creates a vendor master record.
	CreateVendor(ctx context.Context, req CreateVendorRequest) (*core.Vendor, error)

	// ListVendors returns all active vendors.
	ListVendors(ctx context.Context) (*VendorListResult, error)

	// CreatePart creates a part master record.
	CreatePart(ctx context.Context, req CreatePartRequest) (*core.Part, error)

	// ListParts returns all active parts.
	ListParts(ctx context.Context) (*PartListResult, error)

	// CreateCostType creates a top-level cost category.
	CreateCostType(ctx context.Context, name string) (*core.CostType, error)

	// ListCostTypes returns all cost types.
	ListCostTypes(ctx context.Context) (*CostTypeListResult, error)

	// CreateCostCode creates a cost code under a cost type.
	CreateCostCode(ctx context.Context, req CreateCostCodeRequest) (*core.CostCode, error)

	// ListCostCodes returns the cost codes belonging to one cost type.
	ListCostCodes(ctx context.Context, costTypeID int) (*CostCodeListResult, error)

	// CreateWorkOrder creates a work order in UNSCHEDULED status, assigning a number.
	CreateWorkOrder(ctx context.Context, req CreateWorkOrderRequest) (*core.WorkOrder, error)

	// GetWorkOrder returns a single work order by ID.
	GetWorkOrder(ctx context.Context, workOrderID int) (*core.WorkOrder, error)

	// ListWorkOrders returns work orders, optionally filtered by status,
	// customer or project.
	ListWorkOrders(ctx context.Context, req ListWorkOrdersRequest) (*WorkOrderListResult, error)

	// TransitionWorkOrder moves a work order to a new lifecycle status.
	// Transitioning to CLOSED runs the close-out checks first and fails with
	// the full issue list if any check is not satisfied.
	TransitionWorkOrder(ctx context.Context, req TransitionRequest) (*core.WorkOrder, error)

	// ScheduleWorkOrder sets the scheduled date, moving an UNSCHEDULED order
	// to SCHEDULED.
	ScheduleWorkOrder(ctx context.Context, req ScheduleRequest) (*core.WorkOrder, error)

	// GetWorkOrderHistory returns the append-only status transition log.
	GetWorkOrderHistory(ctx context.Context, workOrderID int) (*StatusHistoryResult, error)

	// EvaluateCloseOut reports whether a work order could be closed right now
	// and lists every blocking issue. It never mutates anything.
	EvaluateCloseOut(ctx context.Context, workOrderID int) (*core.CloseOutResult, error)

	// ClockIn opens a time entry for a technician on a work order.
	ClockIn(ctx context.Context, req ClockInRequest) (*core.TimeEntry, error)

	// ClockOut closes an open time entry.
	ClockOut(ctx context.Context, entryID int) (*core.TimeEntry, error)

	// ListTimeEntries returns a work order's time entries, oldest first.
	ListTimeEntries(ctx context.Context, workOrderID int) (*TimeEntryListResult, error)

	// CreateReceipt records a vendor receipt with its line items, assigning a
	// receipt number. Line totals are rounded once at write time.
	CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*core.Receipt, error)

	// GetReceipt returns a receipt with its lines.
	GetReceipt(ctx context.Context, receiptID int) (*core.Receipt, error)

	// ListReceipts returns receipt headers, newest first.
	ListReceipts(ctx context.Context) (*ReceiptListResult, error)

	// UpdateReceiptLine re-prices a receipt line. The new total may not drop
	// below the amount already allocated from the line.
	UpdateReceiptLine(ctx context.Context, req UpdateReceiptLineRequest) (*core.ReceiptLineItem, error)

	// GetReceiptAllocationStatus returns the receipt-level allocation rollup.
	GetReceiptAllocationStatus(ctx context.Context, receiptID int) (*core.ReceiptAllocationStatus, error)

	// ListLineAllocationStatuses returns the per-line allocation rollup.
	ListLineAllocationStatuses(ctx context.Context, receiptID int) (*LineStatusListResult, error)

	// AllocateReceiptLine charges part of a receipt line to a project or work
	// order. Fails with a conflict if the amount exceeds the line's remaining
	// unallocated total.
	AllocateReceiptLine(ctx context.Context, req AllocationRequest) (*core.AllocationResult, error)

	// CreateManualCost records a job cost with no source receipt.
	CreateManualCost(ctx context.Context, req ManualCostRequest) (*core.JobCostEntry, error)

	// BulkAllocateReceipts allocates each receipt's full remaining amount to
	// one owner, reporting per-receipt outcomes.
	BulkAllocateReceipts(ctx context.Context, req BulkAllocationRequest) (*BulkAllocationResult, error)

	// ListJobCosts returns the job-cost entries charged to an owner.
	ListJobCosts(ctx context.Context, ownerKind string, ownerID int) (*JobCostListResult, error)

	// GetCostSummary rolls up an owner's job costs by cost type and cost code.
	GetCostSummary(ctx context.Context, ownerKind string, ownerID int) (*core.CostSummary, error)

	// GetMaterialUsage rolls up an owner's part-referenced costs by part.
	GetMaterialUsage(ctx context.Context, ownerKind string, ownerID int) (*MaterialUsageResult, error)

	// ExtractReceipt sends raw receipt text to the extraction agent and
	// returns a validated draft for operator review.
	ExtractReceipt(ctx context.Context, receiptText string) (*core.ReceiptDraft, error)

	// ConfirmReceiptDraft turns a reviewed draft into a real receipt for the
	// given vendor.
	ConfirmReceiptDraft(ctx context.Context, req ConfirmDraftRequest) (*core.Receipt, error)
}
