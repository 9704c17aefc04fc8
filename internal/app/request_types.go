package app

import (
	"github.com/shopspring/decimal"

	"zenith-fieldservice/internal/core"
)

// CreateCustomerRequest is the input for creating a customer.
type CreateCustomerRequest struct {
	Code    string `validate:"required,max=32"`
	Name    string `validate:"required,max=200"`
	Email   string `validate:"omitempty,email"`
	Phone   string `validate:"max=50"`
	Address string `validate:"max=500"`
}

// CreateProjectRequest is the input for creating a project.
type CreateProjectRequest struct {
	CustomerID int    `validate:"required,gt=0"`
	Name       string `validate:"required,max=200"`
}

// CreateVendorRequest is the input for creating a vendor.
type CreateVendorRequest struct {
	Code             string `validate:"required,max=32"`
	Name             string `validate:"required,max=200"`
	ContactPerson    string `validate:"max=200"`
	Email            string `validate:"omitempty,email"`
	Phone            string `validate:"max=50"`
	Address          string `validate:"max=500"`
	PaymentTermsDays int    `validate:"gte=0,lte=365"`
}

// CreatePartRequest is the input for creating a part.
type CreatePartRequest struct {
	Code string `validate:"required,max=32"`
	Name string `validate:"required,max=200"`
	Unit string `validate:"max=16"`
}

// CreateCostCodeRequest is the input for creating a cost code.
type CreateCostCodeRequest struct {
	CostTypeID int    `validate:"required,gt=0"`
	Code       string `validate:"required,max=32"`
	Name       string `validate:"max=200"`
}

// CreateWorkOrderRequest is the input for creating a work order.
type CreateWorkOrderRequest struct {
	CustomerID           int    `validate:"required,gt=0"`
	ProjectID            *int   `validate:"omitempty,gt=0"`
	AssignedTechnicianID *int   `validate:"omitempty,gt=0"`
	Location             string `validate:"max=500"`
	Priority             string `validate:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	Description          string `validate:"required,max=2000"`
	ContractTotal        decimal.Decimal
}

// ListWorkOrdersRequest narrows ListWorkOrders.
type ListWorkOrdersRequest struct {
	Status     string `validate:"omitempty,oneof=UNSCHEDULED SCHEDULED IN_PROGRESS COMPLETED CLOSED CANCELED"`
	CustomerID int    `validate:"gte=0"`
	ProjectID  int    `validate:"gte=0"`
}

// TransitionRequest is the input for a work-order status change.
type TransitionRequest struct {
	WorkOrderID int    `validate:"required,gt=0"`
	To          string `validate:"required"`
	Reason      string `validate:"max=1000"`
	Actor       string `validate:"max=100"`
}

// ScheduleRequest is the input for scheduling a work order.
type ScheduleRequest struct {
	WorkOrderID int    `validate:"required,gt=0"`
	Date        string `validate:"required,datetime=2006-01-02"`
	Actor       string `validate:"max=100"`
}

// ClockInRequest is the input for opening a time entry.
type ClockInRequest struct {
	WorkOrderID  int    `validate:"required,gt=0"`
	TechnicianID int    `validate:"required,gt=0"`
	Notes        string `validate:"max=1000"`
}

// ReceiptLineRequest is a single line within CreateReceiptRequest.
type ReceiptLineRequest struct {
	Description string `validate:"required,max=500"`
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}

// CreateReceiptRequest is the input for recording a receipt.
type CreateReceiptRequest struct {
	VendorID    int                  `validate:"required,gt=0"`
	ReceiptDate string               `validate:"required,datetime=2006-01-02"`
	Notes       string               `validate:"max=2000"`
	Lines       []ReceiptLineRequest `validate:"required,min=1,dive"`
}

// UpdateReceiptLineRequest is the input for re-pricing a receipt line.
type UpdateReceiptLineRequest struct {
	LineItemID  int    `validate:"required,gt=0"`
	Description string `validate:"required,max=500"`
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}

// AllocationRequest is the input for allocating a receipt line to an owner.
type AllocationRequest struct {
	LineItemID  int    `validate:"required,gt=0"`
	OwnerKind   string `validate:"required,oneof=project work_order"`
	OwnerID     int    `validate:"required,gt=0"`
	CostTypeID  *int   `validate:"omitempty,gt=0"`
	CostCodeID  *int   `validate:"omitempty,gt=0"`
	PartID      *int   `validate:"omitempty,gt=0"`
	Description string `validate:"max=500"`
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	EnteredBy   string `validate:"max=100"`
}

// ManualCostRequest is the input for a direct job-cost entry.
type ManualCostRequest struct {
	OwnerKind   string `validate:"required,oneof=project work_order"`
	OwnerID     int    `validate:"required,gt=0"`
	CostTypeID  *int   `validate:"omitempty,gt=0"`
	CostCodeID  *int   `validate:"omitempty,gt=0"`
	PartID      *int   `validate:"omitempty,gt=0"`
	Description string `validate:"required,max=500"`
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	EnteredBy   string `validate:"max=100"`
}

// BulkAllocationRequest is the input for bulk-allocating whole receipts to
// one owner under a single cost type/code pair.
type BulkAllocationRequest struct {
	ReceiptIDs []int  `validate:"required,min=1,dive,gt=0"`
	OwnerKind  string `validate:"required,oneof=project work_order"`
	OwnerID    int    `validate:"required,gt=0"`
	CostTypeID *int   `validate:"omitempty,gt=0"`
	CostCodeID *int   `validate:"omitempty,gt=0"`
	EnteredBy  string `validate:"max=100"`
}

// ConfirmDraftRequest is the input for turning a reviewed extraction draft
// into a real receipt. The draft is validated by the core, not by struct
// tags, because its amounts are decimal strings.
type ConfirmDraftRequest struct {
	VendorID int `validate:"required,gt=0"`
	Draft    core.ReceiptDraft
}
