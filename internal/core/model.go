package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer represents a service customer master record.
type Customer struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Project groups work and costs for a customer. Job-cost entries may be
// owned by a project directly instead of a single work order.
type Project struct {
	ID           int       `json:"id"`
	Number       string    `json:"number"`
	CustomerID   int       `json:"customer_id"`
	CustomerName string    `json:"customer_name"` // joined from customers
	Name         string    `json:"name"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Vendor is a supplier that receipts are recorded against.
type Vendor struct {
	ID               int       `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	ContactPerson    *string   `json:"contact_person,omitempty"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	Address          *string   `json:"address,omitempty"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// Part is a material master record used for usage rollups.
type Part struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CostType is the top level of the two-level cost categorization
// (e.g. Material, Labor, Equipment).
type CostType struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CostCode always belongs to exactly one CostType.
type CostCode struct {
	ID         int       `json:"id"`
	CostTypeID int       `json:"cost_type_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// WorkOrder is the central lifecycle entity. Status is mutated only through
// WorkOrderService.Transition; every change is recorded in
// work_order_status_history.
type WorkOrder struct {
	ID                   int             `json:"id"`
	Number               string          `json:"number"`
	CustomerID           int             `json:"customer_id"`
	CustomerName         string          `json:"customer_name"` // joined from customers
	ProjectID            *int            `json:"project_id,omitempty"`
	AssignedTechnicianID *int            `json:"assigned_technician_id,omitempty"`
	Location             string          `json:"location"`
	Priority             string          `json:"priority"`
	Description          string          `json:"description"`
	Status               WorkOrderStatus `json:"status"`
	ContractTotal        decimal.Decimal `json:"contract_total"`
	ScheduledFor         *string         `json:"scheduled_for,omitempty"` // YYYY-MM-DD
	OpenedAt             time.Time       `json:"opened_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	ClosedAt             *time.Time      `json:"closed_at,omitempty"`
	CanceledAt           *time.Time      `json:"canceled_at,omitempty"`
}

// StatusHistoryEntry is one row of a work order's append-only transition log.
type StatusHistoryEntry struct {
	ID          int             `json:"id"`
	WorkOrderID int             `json:"work_order_id"`
	FromStatus  WorkOrderStatus `json:"from_status"`
	ToStatus    WorkOrderStatus `json:"to_status"`
	Reason      *string         `json:"reason,omitempty"`
	Actor       string          `json:"actor"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TimeEntry is a technician's clock-in/clock-out record against a work order.
// An entry with a nil ClockOut is "open" and blocks close-out.
type TimeEntry struct {
	ID           int        `json:"id"`
	WorkOrderID  int        `json:"work_order_id"`
	TechnicianID int        `json:"technician_id"`
	ClockIn      time.Time  `json:"clock_in"`
	ClockOut     *time.Time `json:"clock_out,omitempty"`
	Notes        string     `json:"notes"`
}

// OwnerKind discriminates the two possible owners of a job-cost entry.
type OwnerKind string

const (
	OwnerProject   OwnerKind = "project"
	OwnerWorkOrder OwnerKind = "work_order"
)

// CostOwner is the tagged owner of a job-cost entry: a project or a work
// order, never both and never neither.
type CostOwner struct {
	Kind OwnerKind `json:"kind"`
	ID   int       `json:"id"`
}

// Validate checks the owner kind and id.
func (o CostOwner) Validate() error {
	if o.Kind != OwnerProject && o.Kind != OwnerWorkOrder {
		return &ValidationError{Issues: []string{"owner kind must be 'project' or 'work_order'"}}
	}
	if o.ID <= 0 {
		return &ValidationError{Issues: []string{"owner id must be positive"}}
	}
	return nil
}

// User represents an authenticated system user (office staff or technician).
type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}
