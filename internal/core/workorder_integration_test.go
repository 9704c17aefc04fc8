package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"zenith-fieldservice/internal/core"
)

func TestWorkOrder_FullLifecycle(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	timeEntries := core.NewTimeEntryService(pool, audit)
	closeOut := core.NewCloseOutService(pool)

	wo := newWorkOrder(t, workOrders, f, "Annual boiler service")
	if wo.Number != "WO-00001" {
		t.Errorf("number = %s, want WO-00001", wo.Number)
	}
	if wo.Status != core.StatusUnscheduled {
		t.Fatalf("new work order status = %s, want %s", wo.Status, core.StatusUnscheduled)
	}

	// Scheduling sets the date and moves to SCHEDULED in one call.
	wo, err := workOrders.Schedule(ctx, wo.ID, "2026-04-01", "dispatch")
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if wo.Status != core.StatusScheduled {
		t.Errorf("status after Schedule = %s, want %s", wo.Status, core.StatusScheduled)
	}
	if wo.ScheduledFor == nil || *wo.ScheduledFor != "2026-04-01" {
		t.Errorf("scheduled_for = %v, want 2026-04-01", wo.ScheduledFor)
	}

	wo, err = workOrders.Transition(ctx, wo.ID, core.StatusInProgress, "", "tech1")
	if err != nil {
		t.Fatalf("transition to IN_PROGRESS failed: %v", err)
	}

	entry, err := timeEntries.ClockIn(ctx, wo.ID, f.technicianID, "on site")
	if err != nil {
		t.Fatalf("ClockIn failed: %v", err)
	}

	wo, err = workOrders.Transition(ctx, wo.ID, core.StatusCompleted, "", "tech1")
	if err != nil {
		t.Fatalf("transition to COMPLETED failed: %v", err)
	}
	if wo.CompletedAt == nil {
		t.Error("completed_at not stamped on COMPLETED")
	}

	// Closing is blocked while the technician is still on the clock, and the
	// refusal names the problem.
	_, err = workOrders.Transition(ctx, wo.ID, core.StatusClosed, "", "office")
	var validation *core.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError closing with open time entry, got %v", err)
	}
	found := false
	for _, issue := range validation.Issues {
		if strings.Contains(issue, "open time entries") {
			found = true
		}
	}
	if !found {
		t.Errorf("issues %v do not mention open time entries", validation.Issues)
	}

	// The standalone evaluation agrees with the transition path.
	result, err := closeOut.Evaluate(ctx, wo.ID)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.CanClose {
		t.Error("Evaluate reports CanClose with an open time entry")
	}

	if _, err := timeEntries.ClockOut(ctx, entry.ID); err != nil {
		t.Fatalf("ClockOut failed: %v", err)
	}

	result, err = closeOut.Evaluate(ctx, wo.ID)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !result.CanClose || len(result.Issues) != 0 {
		t.Fatalf("Evaluate after clock-out = %+v, want clean pass", result)
	}

	wo, err = workOrders.Transition(ctx, wo.ID, core.StatusClosed, "", "office")
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if wo.ClosedAt == nil {
		t.Error("closed_at not stamped on CLOSED")
	}

	history, err := workOrders.GetStatusHistory(ctx, wo.ID)
	if err != nil {
		t.Fatalf("GetStatusHistory failed: %v", err)
	}
	wantMoves := [][2]core.WorkOrderStatus{
		{core.StatusUnscheduled, core.StatusScheduled},
		{core.StatusScheduled, core.StatusInProgress},
		{core.StatusInProgress, core.StatusCompleted},
		{core.StatusCompleted, core.StatusClosed},
	}
	if len(history) != len(wantMoves) {
		t.Fatalf("history has %d entries, want %d", len(history), len(wantMoves))
	}
	for i, h := range history {
		if h.FromStatus != wantMoves[i][0] || h.ToStatus != wantMoves[i][1] {
			t.Errorf("history[%d] = %s→%s, want %s→%s",
				i, h.FromStatus, h.ToStatus, wantMoves[i][0], wantMoves[i][1])
		}
	}
}

func TestWorkOrder_ReasonEnforcement(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)

	wo := newWorkOrder(t, workOrders, f, "Gutter repair")

	// Cancellation without a reason is refused and nothing changes.
	_, err := workOrders.Transition(ctx, wo.ID, core.StatusCanceled, "", "dispatch")
	var missing *core.MissingDataError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingDataError, got %v", err)
	}
	wo, err = workOrders.Get(ctx, wo.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if wo.Status != core.StatusUnscheduled {
		t.Errorf("status after refused cancel = %s, want %s", wo.Status, core.StatusUnscheduled)
	}

	wo, err = workOrders.Transition(ctx, wo.ID, core.StatusCanceled, "duplicate ticket", "dispatch")
	if err != nil {
		t.Fatalf("cancel with reason failed: %v", err)
	}
	if wo.CanceledAt == nil {
		t.Error("canceled_at not stamped")
	}

	// Terminal means terminal.
	_, err = workOrders.Transition(ctx, wo.ID, core.StatusScheduled, "changed our mind", "dispatch")
	var invalid *core.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError out of CANCELED, got %v", err)
	}

	history, err := workOrders.GetStatusHistory(ctx, wo.ID)
	if err != nil {
		t.Fatalf("GetStatusHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want 1", len(history))
	}
	if history[0].Reason == nil || *history[0].Reason != "duplicate ticket" {
		t.Errorf("history reason = %v, want duplicate ticket", history[0].Reason)
	}
}

func TestWorkOrder_ReopenClearsCompletedAt(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)

	wo := newWorkOrder(t, workOrders, f, "Punch list items")
	if _, err := workOrders.Schedule(ctx, wo.ID, "2026-04-02", "dispatch"); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if _, err := workOrders.Transition(ctx, wo.ID, core.StatusInProgress, "", "tech1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	wo, err := workOrders.Transition(ctx, wo.ID, core.StatusCompleted, "", "tech1")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if wo.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}

	wo, err = workOrders.Transition(ctx, wo.ID, core.StatusInProgress, "failed inspection", "tech1")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if wo.CompletedAt != nil {
		t.Error("completed_at not cleared on reopen")
	}
}

func TestTimeEntry_OneOpenPerTechnician(t *testing.T) {
	pool, f := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	numbers := core.NewNumberService(pool)
	audit := core.NopAuditRecorder{}
	workOrders := core.NewWorkOrderService(pool, numbers, audit)
	timeEntries := core.NewTimeEntryService(pool, audit)

	wo := newWorkOrder(t, workOrders, f, "Emergency leak")

	entry, err := timeEntries.ClockIn(ctx, wo.ID, f.technicianID, "")
	if err != nil {
		t.Fatalf("ClockIn failed: %v", err)
	}

	_, err = timeEntries.ClockIn(ctx, wo.ID, f.technicianID, "")
	var conflict *core.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError on double clock-in, got %v", err)
	}

	if _, err := timeEntries.ClockOut(ctx, entry.ID); err != nil {
		t.Fatalf("ClockOut failed: %v", err)
	}

	// Clocking out twice is a conflict, not a not-found.
	_, err = timeEntries.ClockOut(ctx, entry.ID)
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError on double clock-out, got %v", err)
	}

	open, err := timeEntries.ListOpenEntries(ctx, wo.ID)
	if err != nil {
		t.Fatalf("ListOpenEntries failed: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("expected no open entries, got %d", len(open))
	}
}
