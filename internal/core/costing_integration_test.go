package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"zenith-fieldservice/internal/core"
)

func TestCostSummary_UncategorizedBucket(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)
	costing := core.NewCostingService(pool)

	wo := newWorkOrder(t, workOrders, f, "Bathroom remodel")
	owner := core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID}

	// One categorized material entry, one categorized labor entry, one with
	// no cost type at all.
	if _, err := allocations.CreateManualEntry(ctx, core.ManualEntryInput{
		Owner:       owner,
		CostTypeID:  &f.materialTypeID,
		CostCodeID:  &f.plumbingCodeID,
		PartID:      &f.partID,
		Description: "PVC pipe",
		Quantity:    money("10"),
		UnitCost:    money("2.50"),
		EnteredBy:   "tech1",
	}); err != nil {
		t.Fatalf("material entry failed: %v", err)
	}
	if _, err := allocations.CreateManualEntry(ctx, core.ManualEntryInput{
		Owner:       owner,
		CostTypeID:  &f.laborTypeID,
		CostCodeID:  &f.fieldLaborCodeID,
		Description: "Install labor",
		Quantity:    money("3"),
		UnitCost:    money("85.00"),
		EnteredBy:   "tech1",
	}); err != nil {
		t.Fatalf("labor entry failed: %v", err)
	}
	if _, err := allocations.CreateManualEntry(ctx, core.ManualEntryInput{
		Owner:       owner,
		Description: "Dump fee",
		Quantity:    money("1"),
		UnitCost:    money("45.00"),
		EnteredBy:   "tech1",
	}); err != nil {
		t.Fatalf("uncategorized entry failed: %v", err)
	}

	summary, err := costing.Summary(ctx, owner)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	// 25 + 255 + 45
	if !summary.GrandTotal.Equal(money("325.00")) {
		t.Errorf("grand total = %s, want 325", summary.GrandTotal)
	}

	byLabel := map[string]core.CostBucket{}
	for _, b := range summary.ByCostType {
		byLabel[b.Label] = b
	}
	if len(summary.ByCostType) != 3 {
		t.Fatalf("expected 3 cost-type buckets, got %d", len(summary.ByCostType))
	}
	if b := byLabel["Material"]; b.Key == nil || !b.Total.Equal(money("25.00")) {
		t.Errorf("Material bucket = %+v, want keyed total 25", b)
	}
	if b := byLabel["Labor"]; b.Key == nil || !b.Total.Equal(money("255.00")) {
		t.Errorf("Labor bucket = %+v, want keyed total 255", b)
	}
	b, ok := byLabel["Uncategorized"]
	if !ok {
		t.Fatal("no Uncategorized bucket in cost-type rollup")
	}
	if b.Key != nil {
		t.Errorf("Uncategorized bucket has key %v, want nil", b.Key)
	}
	if !b.Total.Equal(money("45.00")) || b.Count != 1 {
		t.Errorf("Uncategorized bucket = %+v, want total 45 count 1", b)
	}

	// The grand total always matches the sum of the underlying entries.
	entries, err := allocations.ListEntriesForOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListEntriesForOwner failed: %v", err)
	}
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	if !summary.GrandTotal.Equal(sum) {
		t.Errorf("grand total %s != entries sum %s", summary.GrandTotal, sum)
	}
}

func TestMaterialUsage(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	allocations := core.NewAllocationService(pool, audit)
	costing := core.NewCostingService(pool)

	wo := newWorkOrder(t, workOrders, f, "Irrigation repair")
	owner := core.CostOwner{Kind: core.OwnerWorkOrder, ID: wo.ID}

	for _, qty := range []string{"10", "6.5"} {
		if _, err := allocations.CreateManualEntry(ctx, core.ManualEntryInput{
			Owner:       owner,
			CostTypeID:  &f.materialTypeID,
			PartID:      &f.partID,
			Description: "PVC pipe",
			Quantity:    money(qty),
			UnitCost:    money("2.50"),
			EnteredBy:   "tech1",
		}); err != nil {
			t.Fatalf("entry failed: %v", err)
		}
	}
	// A part-less entry is cost data, not material usage.
	if _, err := allocations.CreateManualEntry(ctx, core.ManualEntryInput{
		Owner:       owner,
		Description: "Rental trencher",
		Quantity:    money("1"),
		UnitCost:    money("150.00"),
		EnteredBy:   "tech1",
	}); err != nil {
		t.Fatalf("entry failed: %v", err)
	}

	usage, err := costing.MaterialUsage(ctx, owner)
	if err != nil {
		t.Fatalf("MaterialUsage failed: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("expected 1 part in usage, got %d", len(usage))
	}
	if usage[0].PartCode != "PVC-34" {
		t.Errorf("part code = %s, want PVC-34", usage[0].PartCode)
	}
	if !usage[0].Quantity.Equal(money("16.5")) {
		t.Errorf("quantity = %s, want 16.5", usage[0].Quantity)
	}
	// 25.00 + 16.25
	if !usage[0].Total.Equal(money("41.25")) {
		t.Errorf("total = %s, want 41.25", usage[0].Total)
	}
}

func TestCostSummary_ProjectOwner(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	projects := core.NewProjectService(pool, numbers)
	allocations := core.NewAllocationService(pool, audit)
	costing := core.NewCostingService(pool)

	project, err := projects.CreateProject(ctx, f.customerID, "Clubhouse renovation")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if project.Number != "PRJ-00001" {
		t.Errorf("project number = %s, want PRJ-00001", project.Number)
	}
	owner := core.CostOwner{Kind: core.OwnerProject, ID: project.ID}

	if _, err := allocations.CreateManualEntry(ctx, core.ManualEntryInput{
		Owner:       owner,
		CostTypeID:  &f.materialTypeID,
		Description: "Lumber package",
		Quantity:    money("1"),
		UnitCost:    money("1200.00"),
		EnteredBy:   "office",
	}); err != nil {
		t.Fatalf("entry failed: %v", err)
	}

	summary, err := costing.Summary(ctx, owner)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if !summary.GrandTotal.Equal(money("1200.00")) {
		t.Errorf("grand total = %s, want 1200", summary.GrandTotal)
	}
	if summary.Owner != owner {
		t.Errorf("summary owner = %+v, want %+v", summary.Owner, owner)
	}

	// Unknown owners are a not-found, not an empty rollup.
	_, err = costing.Summary(ctx, core.CostOwner{Kind: core.OwnerProject, ID: 999999})
	var notFound *core.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for missing project, got %v", err)
	}
}
