package app

import (
	"zenith-fieldservice/internal/core"
)

// CustomerListResult is returned by ListCustomers.
type CustomerListResult struct {
	Customers []core.Customer
}

// ProjectListResult is returned by ListProjects.
type ProjectListResult struct {
	Projects []core.Project
}

// VendorListResult is returned by ListVendors.
type VendorListResult struct {
	Vendors []core.Vendor
}

// PartListResult is returned by ListParts.
type PartListResult struct {
	Parts []core.Part
}

// CostTypeListResult is returned by ListCostTypes.
type CostTypeListResult struct {
	CostTypes []core.CostType
}

// CostCodeListResult is returned by ListCostCodes.
type CostCodeListResult struct {
	CostCodes []core.CostCode
}

// WorkOrderListResult is returned by ListWorkOrders.
type WorkOrderListResult struct {
	WorkOrders []core.WorkOrder
}

// StatusHistoryResult is returned by GetWorkOrderHistory.
type StatusHistoryResult struct {
	WorkOrderID int
	History     []core.StatusHistoryEntry
}

// TimeEntryListResult is returned by ListTimeEntries.
type TimeEntryListResult struct {
	Entries []core.TimeEntry
}

// ReceiptListResult is returned by ListReceipts.
type ReceiptListResult struct {
	Receipts []core.Receipt
}

// LineStatusListResult is returned by ListLineAllocationStatuses.
type LineStatusListResult struct {
	ReceiptID int
	Lines     []core.LineAllocationStatus
}

// BulkAllocationResult is returned by BulkAllocateReceipts.
type BulkAllocationResult struct {
	Results []core.BulkReceiptResult
}

// JobCostListResult is returned by ListJobCosts.
type JobCostListResult struct {
	Owner   core.CostOwner
	Entries []core.JobCostEntry
}

// MaterialUsageResult is returned by GetMaterialUsage.
type MaterialUsageResult struct {
	Owner core.CostOwner
	Usage []core.PartUsage
}
