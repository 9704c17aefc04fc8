package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"zenith-fieldservice/internal/core"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newWorkOrder creates a work order in UNSCHEDULED for allocation targets.
func newWorkOrder(t *testing.T, svc core.WorkOrderService, f testFixtures, description string) *core.WorkOrder {
	t.Helper()
	wo, err := svc.Create(context.Background(), core.WorkOrderInput{
		CustomerID:    f.customerID,
		Description:   description,
		ContractTotal: money("1000.00"),
	})
	if err != nil {
		t.Fatalf("Create work order failed: %v", err)
	}
	return wo
}

// newReceipt creates a receipt with a single line of the given total.
func newReceipt(t *testing.T, svc core.ReceiptService, f testFixtures, lineTotal string) *core.Receipt {
	t.Helper()
	r, err := svc.CreateReceipt(context.Background(), core.ReceiptInput{
		VendorID:    f.vendorID,
		ReceiptDate: "2026-03-14",
		Lines: []core.ReceiptLineInput{
			{Description: "Materials", Quantity: money("1"), UnitCost: money(lineTotal)},
		},
	})
	if err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}
	return r
}

func TestAllocation_FullCycle(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	receipts := core.NewReceiptService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)

	wo := newWorkOrder(t, workOrders, f, "Replace water heater")
	receipt := newReceipt(t, receipts, f, "500.00")
	lineID := receipt.Lines[0].ID
	owner := core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID}

	// First allocation of 300 leaves 200 on the line.
	result, err := allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: lineID,
		Owner:      owner,
		CostTypeID: &f.materialTypeID,
		CostCodeID: &f.plumbingCodeID,
		Quantity:   money("1"),
		UnitCost:   money("300.00"),
		EnteredBy:  "tech1",
	})
	if err != nil {
		t.Fatalf("first allocation failed: %v", err)
	}
	if !result.UnallocatedTotal.Equal(money("200.00")) {
		t.Errorf("unallocated after 300 = %s, want 200", result.UnallocatedTotal)
	}

	// 250 does not fit into the remaining 200. Never clamped, always refused.
	_, err = allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: lineID,
		Owner:      owner,
		Quantity:   money("1"),
		UnitCost:   money("250.00"),
		EnteredBy:  "tech1",
	})
	var conflict *core.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Error() != "Cannot allocate $250.00. Only $200.00 remaining." {
		t.Errorf("conflict message = %q", conflict.Error())
	}
	if !conflict.Requested.Equal(money("250.00")) || !conflict.Remaining.Equal(money("200.00")) {
		t.Errorf("conflict carries requested=%s remaining=%s, want 250/200",
			conflict.Requested, conflict.Remaining)
	}

	// The failed attempt wrote nothing.
	status, err := allocations.GetReceiptAllocationStatus(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("GetReceiptAllocationStatus failed: %v", err)
	}
	if !status.AllocatedTotal.Equal(money("300.00")) {
		t.Errorf("allocated total = %s, want 300 after rejected attempt", status.AllocatedTotal)
	}
	if status.Status != core.TagPartiallyAllocated {
		t.Errorf("receipt status = %s, want %s", status.Status, core.TagPartiallyAllocated)
	}

	// The exact remainder fits.
	result, err = allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: lineID,
		Owner:      owner,
		Quantity:   money("1"),
		UnitCost:   money("200.00"),
		EnteredBy:  "tech1",
	})
	if err != nil {
		t.Fatalf("remainder allocation failed: %v", err)
	}
	if !result.UnallocatedTotal.IsZero() {
		t.Errorf("unallocated after full allocation = %s, want 0", result.UnallocatedTotal)
	}

	status, err = allocations.GetReceiptAllocationStatus(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("GetReceiptAllocationStatus failed: %v", err)
	}
	if status.Status != core.TagAllocated {
		t.Errorf("receipt status = %s, want %s", status.Status, core.TagAllocated)
	}

	entries, err := allocations.ListEntriesForOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListEntriesForOwner failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for work order, got %d", len(entries))
	}
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	if !sum.Equal(money("500.00")) {
		t.Errorf("entries sum = %s, want 500", sum)
	}
}

// Concurrent allocations against one line must serialize on the row lock:
// exactly three of four 150 allocations fit into a 500 line, and the sum of
// committed allocations never exceeds the line total.
func TestAllocation_ConcurrentConservation(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	receipts := core.NewReceiptService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)

	wo := newWorkOrder(t, workOrders, f, "Trench and backfill")
	receipt := newReceipt(t, receipts, f, "500.00")
	lineID := receipt.Lines[0].ID
	owner := core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID}

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = allocations.CreateAllocation(ctx, core.AllocationInput{
				LineItemID: lineID,
				Owner:      owner,
				Quantity:   money("1"),
				UnitCost:   money("150.00"),
				EnteredBy:  "tech1",
			})
		}(i)
	}
	wg.Wait()

	succeeded, conflicts := 0, 0
	for _, err := range errs {
		var conflict *core.ConflictError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &conflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 3 || conflicts != 1 {
		t.Fatalf("succeeded=%d conflicts=%d, want 3/1", succeeded, conflicts)
	}

	status, err := allocations.GetReceiptAllocationStatus(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("GetReceiptAllocationStatus failed: %v", err)
	}
	if !status.AllocatedTotal.Equal(money("450.00")) {
		t.Errorf("allocated total = %s, want 450", status.AllocatedTotal)
	}
}

func TestAllocation_TerminalWorkOrdersRejected(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	receipts := core.NewReceiptService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)

	wo := newWorkOrder(t, workOrders, f, "Canceled job")
	if _, err := workOrders.Transition(ctx, wo.ID, core.StatusCanceled, "customer withdrew", "dispatch"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	receipt := newReceipt(t, receipts, f, "100.00")
	_, err := allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: receipt.Lines[0].ID,
		Owner:      core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID},
		Quantity:   money("1"),
		UnitCost:   money("100.00"),
		EnteredBy:  "tech1",
	})
	var conflict *core.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError for canceled work order, got %v", err)
	}

	// Manual entries are refused the same way.
	_, err = allocations.CreateManualEntry(ctx, core.ManualEntryInput{
		Owner:       core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID},
		Description: "After-the-fact labor",
		Quantity:    money("2"),
		UnitCost:    money("85.00"),
		EnteredBy:   "tech1",
	})
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError for manual entry on canceled work order, got %v", err)
	}
}

func TestAllocation_CostCodeMustMatchType(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	receipts := core.NewReceiptService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)

	wo := newWorkOrder(t, workOrders, f, "Service call")
	receipt := newReceipt(t, receipts, f, "50.00")

	// The plumbing code belongs to Material, not Labor.
	_, err := allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: receipt.Lines[0].ID,
		Owner:      core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID},
		CostTypeID: &f.laborTypeID,
		CostCodeID: &f.plumbingCodeID,
		Quantity:   money("1"),
		UnitCost:   money("50.00"),
		EnteredBy:  "tech1",
	})
	var validation *core.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for mismatched cost code, got %v", err)
	}

	// A cost code without a cost type is rejected before touching the line.
	_, err = allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: receipt.Lines[0].ID,
		Owner:      core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID},
		CostCodeID: &f.plumbingCodeID,
		Quantity:   money("1"),
		UnitCost:   money("50.00"),
		EnteredBy:  "tech1",
	})
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for code without type, got %v", err)
	}
}

func TestBulkAllocateReceipts(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	receipts := core.NewReceiptService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)

	wo := newWorkOrder(t, workOrders, f, "Buildout phase 1")
	owner := core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID}

	fresh := newReceipt(t, receipts, f, "120.00")
	partial := newReceipt(t, receipts, f, "80.00")
	full := newReceipt(t, receipts, f, "60.00")

	// 30 of the partial receipt is already allocated, and the third receipt
	// is fully allocated before the bulk run.
	if _, err := allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: partial.Lines[0].ID, Owner: owner, Quantity: money("1"), UnitCost: money("30.00"), EnteredBy: "tech1",
	}); err != nil {
		t.Fatalf("pre-allocation failed: %v", err)
	}
	if _, err := allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: full.Lines[0].ID, Owner: owner, Quantity: money("1"), UnitCost: money("60.00"), EnteredBy: "tech1",
	}); err != nil {
		t.Fatalf("pre-allocation failed: %v", err)
	}

	results, err := allocations.BulkAllocateReceipts(ctx,
		[]int{fresh.ID, partial.ID, full.ID, 999999}, owner,
		&f.materialTypeID, &f.plumbingCodeID, "office")
	if err != nil {
		t.Fatalf("BulkAllocateReceipts failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	if results[0].Skipped || !results[0].Allocated.Equal(money("120.00")) {
		t.Errorf("fresh receipt: skipped=%v allocated=%s, want full 120", results[0].Skipped, results[0].Allocated)
	}
	if results[1].Skipped || !results[1].Allocated.Equal(money("50.00")) {
		t.Errorf("partial receipt: skipped=%v allocated=%s, want remaining 50", results[1].Skipped, results[1].Allocated)
	}
	if !results[2].Skipped || results[2].Reason == "" {
		t.Errorf("fully-allocated receipt should be skipped with a reason, got %+v", results[2])
	}
	if !results[3].Skipped {
		t.Errorf("missing receipt should be skipped, got %+v", results[3])
	}

	for _, id := range []int{fresh.ID, partial.ID, full.ID} {
		status, err := allocations.GetReceiptAllocationStatus(ctx, id)
		if err != nil {
			t.Fatalf("GetReceiptAllocationStatus(%d) failed: %v", id, err)
		}
		if status.Status != core.TagAllocated {
			t.Errorf("receipt %d status = %s, want %s", id, status.Status, core.TagAllocated)
		}
	}

	// Every entry written by the bulk run carries the batch's cost type/code.
	entries, err := allocations.ListEntriesForOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListEntriesForOwner failed: %v", err)
	}
	bulkEntries := 0
	for _, e := range entries {
		if e.EnteredBy != "office" {
			continue
		}
		bulkEntries++
		if e.CostTypeID == nil || *e.CostTypeID != f.materialTypeID {
			t.Errorf("bulk entry %d cost type = %v, want %d", e.ID, e.CostTypeID, f.materialTypeID)
		}
		if e.CostCodeID == nil || *e.CostCodeID != f.plumbingCodeID {
			t.Errorf("bulk entry %d cost code = %v, want %d", e.ID, e.CostCodeID, f.plumbingCodeID)
		}
	}
	if bulkEntries != 2 {
		t.Errorf("expected 2 bulk-written entries, got %d", bulkEntries)
	}
}

// The cost type/code pair is validated once for the whole batch: a code that
// belongs to a different type rejects the run before any receipt is touched.
func TestBulkAllocateReceipts_MismatchedPairRejectsBatch(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	receipts := core.NewReceiptService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)

	wo := newWorkOrder(t, workOrders, f, "Fence repair")
	owner := core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID}
	receipt := newReceipt(t, receipts, f, "75.00")

	_, err := allocations.BulkAllocateReceipts(ctx,
		[]int{receipt.ID}, owner, &f.laborTypeID, &f.plumbingCodeID, "office")
	var validation *core.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for mismatched pair, got %v", err)
	}

	status, err := allocations.GetReceiptAllocationStatus(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("GetReceiptAllocationStatus failed: %v", err)
	}
	if !status.AllocatedTotal.IsZero() {
		t.Errorf("allocated total = %s, want 0 after rejected batch", status.AllocatedTotal)
	}
}

// An allocation keeps the quantity it was entered with, so part quantities
// flow into the material-usage rollup instead of collapsing to 1.
func TestAllocation_RecordsQuantityForMaterialUsage(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	receipts := core.NewReceiptService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)
	costing := core.NewCostingService(pool)

	wo := newWorkOrder(t, workOrders, f, "Main line replacement")
	owner := core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID}

	receipt, err := receipts.CreateReceipt(ctx, core.ReceiptInput{
		VendorID:    f.vendorID,
		ReceiptDate: "2026-03-20",
		Lines: []core.ReceiptLineInput{
			{Description: "3/4in PVC pipe", Quantity: money("40"), UnitCost: money("2.50")},
		},
	})
	if err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}

	result, err := allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: receipt.Lines[0].ID,
		Owner:      owner,
		CostTypeID: &f.materialTypeID,
		CostCodeID: &f.plumbingCodeID,
		PartID:     &f.partID,
		Quantity:   money("40"),
		UnitCost:   money("2.50"),
		EnteredBy:  "tech1",
	})
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	if !result.Entry.Quantity.Equal(money("40")) {
		t.Errorf("entry quantity = %s, want 40", result.Entry.Quantity)
	}
	if !result.Entry.Amount.Equal(money("100.00")) {
		t.Errorf("entry amount = %s, want 100", result.Entry.Amount)
	}

	usage, err := costing.MaterialUsage(ctx, owner)
	if err != nil {
		t.Fatalf("MaterialUsage failed: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("expected 1 part in usage, got %d", len(usage))
	}
	if !usage[0].Quantity.Equal(money("40")) {
		t.Errorf("usage quantity = %s, want 40", usage[0].Quantity)
	}
	if !usage[0].Total.Equal(money("100.00")) {
		t.Errorf("usage total = %s, want 100", usage[0].Total)
	}
}

// The positivity check applies to the rounded amount. 1 × 0.004 is a positive
// input that rounds to 0.00 and must be refused without writing an entry.
func TestAllocation_AmountRoundingToZeroRejected(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	receipts := core.NewReceiptService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)

	wo := newWorkOrder(t, workOrders, f, "Filter swap")
	receipt := newReceipt(t, receipts, f, "20.00")

	_, err := allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: receipt.Lines[0].ID,
		Owner:      core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID},
		Quantity:   money("1"),
		UnitCost:   money("0.004"),
		EnteredBy:  "tech1",
	})
	var validation *core.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for amount rounding to zero, got %v", err)
	}

	status, err := allocations.GetReceiptAllocationStatus(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("GetReceiptAllocationStatus failed: %v", err)
	}
	if !status.AllocatedTotal.IsZero() {
		t.Errorf("allocated total = %s, want 0 after rejected allocation", status.AllocatedTotal)
	}
	if status.Status != core.TagUnallocated {
		t.Errorf("receipt status = %s, want %s", status.Status, core.TagUnallocated)
	}
}

func TestUpdateLineItem_CannotDropBelowAllocated(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	receipts := core.NewReceiptService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)

	wo := newWorkOrder(t, workOrders, f, "Repipe")
	receipt := newReceipt(t, receipts, f, "200.00")
	lineID := receipt.Lines[0].ID

	if _, err := allocations.CreateAllocation(ctx, core.AllocationInput{
		LineItemID: lineID,
		Owner:      core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID},
		Quantity:   money("1"),
		UnitCost:   money("150.00"),
		EnteredBy:  "tech1",
	}); err != nil {
		t.Fatalf("allocation failed: %v", err)
	}

	// Repricing below the 150 already allocated is refused.
	_, err := receipts.UpdateLineItem(ctx, lineID, core.ReceiptLineInput{
		Description: "Materials", Quantity: money("1"), UnitCost: money("100.00"),
	})
	var conflict *core.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	// Repricing above it goes through and the stored total is the new price.
	updated, err := receipts.UpdateLineItem(ctx, lineID, core.ReceiptLineInput{
		Description: "Materials", Quantity: money("1"), UnitCost: money("180.00"),
	})
	if err != nil {
		t.Fatalf("UpdateLineItem failed: %v", err)
	}
	if !updated.LineTotal.Equal(money("180.00")) {
		t.Errorf("line total = %s, want 180", updated.LineTotal)
	}
}
