package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is a vendor-sourced cost document: a header plus line items.
type Receipt struct {
	ID          int               `json:"id"`
	Number      string            `json:"number"`
	VendorID    int               `json:"vendor_id"`
	VendorCode  string            `json:"vendor_code"`  // joined from vendors
	VendorName  string            `json:"vendor_name"`  // joined from vendors
	ReceiptDate string            `json:"receipt_date"` // YYYY-MM-DD
	Notes       string            `json:"notes"`
	Lines       []ReceiptLineItem `json:"lines"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ReceiptLineItem is one priced line on a receipt. LineTotal is computed as
// RoundMoney(quantity × unit cost) at write time and is the ceiling for the
// sum of allocations against this line.
type ReceiptLineItem struct {
	ID          int             `json:"id"`
	ReceiptID   int             `json:"receipt_id"`
	LineNumber  int             `json:"line_number"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineTotal   decimal.Decimal `json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ReceiptLineInput is used when creating a receipt or editing a line.
type ReceiptLineInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}

// JobCostEntry is a single cost charged to a project or work order, either
// allocated from a receipt line item or entered manually.
type JobCostEntry struct {
	ID                int             `json:"id"`
	ReceiptID         *int            `json:"receipt_id,omitempty"`
	ReceiptLineItemID *int            `json:"receipt_line_item_id,omitempty"`
	Owner             CostOwner       `json:"owner"`
	CostTypeID        *int            `json:"cost_type_id,omitempty"`
	CostCodeID        *int            `json:"cost_code_id,omitempty"`
	PartID            *int            `json:"part_id,omitempty"`
	Description       string          `json:"description"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	Amount            decimal.Decimal `json:"amount"`
	EnteredBy         string          `json:"entered_by"`
	CreatedAt         time.Time       `json:"created_at"`
}

// AllocationTag classifies how much of a line or receipt total has been
// allocated to job costs.
type AllocationTag string

const (
	TagUnallocated        AllocationTag = "UNALLOCATED"
	TagPartiallyAllocated AllocationTag = "PARTIALLY_ALLOCATED"
	TagAllocated          AllocationTag = "ALLOCATED"
	TagOverAllocated      AllocationTag = "OVERALLOCATED"
)

// ClassifyAllocation derives the status tag for a (total, allocated) pair.
// The comparison against the full total uses MoneyEpsilon because allocated
// totals are sums of independently rounded amounts. Nothing allocated is
// always UNALLOCATED, even on a zero total, so the zero check runs before the
// epsilon window. OVERALLOCATED is a data-integrity error state: it is
// reported, never clamped.
func ClassifyAllocation(total, allocated decimal.Decimal) AllocationTag {
	switch {
	case allocated.IsZero() || allocated.IsNegative():
		return TagUnallocated
	case allocated.GreaterThan(total.Add(MoneyEpsilon)):
		return TagOverAllocated
	case allocated.GreaterThanOrEqual(total.Sub(MoneyEpsilon)):
		return TagAllocated
	default:
		return TagPartiallyAllocated
	}
}

// LineAllocationStatus is the derived allocation state of one receipt line.
type LineAllocationStatus struct {
	LineItemID       int             `json:"line_item_id"`
	LineNumber       int             `json:"line_number"`
	Description      string          `json:"description"`
	LineTotal        decimal.Decimal `json:"line_total"`
	AllocatedTotal   decimal.Decimal `json:"allocated_total"`
	UnallocatedTotal decimal.Decimal `json:"unallocated_total"`
	Status           AllocationTag   `json:"status"`
}

// ReceiptAllocationStatus is the derived allocation state of a whole receipt:
// the sum of its line-level statuses.
type ReceiptAllocationStatus struct {
	ReceiptID        int             `json:"receipt_id"`
	LinesTotal       decimal.Decimal `json:"lines_total"`
	AllocatedTotal   decimal.Decimal `json:"allocated_total"`
	UnallocatedTotal decimal.Decimal `json:"unallocated_total"`
	Status           AllocationTag   `json:"status"`
}
