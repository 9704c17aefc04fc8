package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CloseOutResult reports whether a work order can be closed and, if not,
// every blocking issue found. The checks all run even after the first
// failure so an operator sees the full punch list at once.
type CloseOutResult struct {
	CanClose bool     `json:"can_close"`
	Issues   []string `json:"issues"`
}

// CloseOutService validates a work order for close-out. Transition to CLOSED
// runs the same checks inside the transition transaction; this service also
// exposes them as a standalone read so clients can show readiness before the
// operator commits.
type CloseOutService interface {
	Evaluate(ctx context.Context, workOrderID int) (*CloseOutResult, error)
}

type closeOutService struct {
	pool *pgxpool.Pool
}

// NewCloseOutService constructs a CloseOutService backed by PostgreSQL.
func NewCloseOutService(pool *pgxpool.Pool) CloseOutService {
	return &closeOutService{pool: pool}
}

func (s *closeOutService) Evaluate(ctx context.Context, workOrderID int) (*CloseOutResult, error) {
	return evaluateCloseOut(ctx, s.pool, workOrderID)
}

// evaluateCloseOut runs the close-out checks through q, which may be a pool
// or an open transaction. The transition path passes its transaction so the
// decision is made against the same snapshot as the status update.
func evaluateCloseOut(ctx context.Context, q pgxQuerier, workOrderID int) (*CloseOutResult, error) {
	var status WorkOrderStatus
	err := q.QueryRow(ctx, "SELECT status FROM work_orders WHERE id = $1", workOrderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "work order", Ref: fmt.Sprint(workOrderID)}
		}
		return nil, fmt.Errorf("fetch work order %d: %w", workOrderID, err)
	}

	var issues []string

	if status != StatusCompleted {
		issues = append(issues, fmt.Sprintf("work order must be COMPLETED to close, currently %s", status))
	}

	var openEntries int
	if err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM time_entries
		WHERE work_order_id = $1 AND clock_out IS NULL
	`, workOrderID).Scan(&openEntries); err != nil {
		return nil, fmt.Errorf("count open time entries: %w", err)
	}
	if openEntries > 0 {
		issues = append(issues, fmt.Sprintf("%d open time entries must be clocked out", openEntries))
	}

	overallocated, err := overallocatedLines(ctx, q, workOrderID)
	if err != nil {
		return nil, err
	}
	for _, line := range overallocated {
		issues = append(issues, fmt.Sprintf(
			"receipt line %d is overallocated ($%s allocated against a $%s line total)",
			line.LineItemID, line.AllocatedTotal.StringFixed(2), line.LineTotal.StringFixed(2)))
	}

	return &CloseOutResult{CanClose: len(issues) == 0, Issues: issues}, nil
}

// overallocatedLines finds receipt lines that have allocations charged to the
// work order and whose total allocations exceed the line total. The engine's
// admission check prevents new overallocation, but legacy or repriced data is
// still caught here before close-out.
func overallocatedLines(ctx context.Context, q pgxQuerier, workOrderID int) ([]LineAllocationStatus, error) {
	rows, err := q.Query(ctx, `
		SELECT li.id, li.line_number, li.description, li.line_total,
		       COALESCE(SUM(all_jce.amount), 0)
		FROM receipt_line_items li
		LEFT JOIN job_cost_entries all_jce ON all_jce.receipt_line_item_id = li.id
		WHERE li.id IN (
			SELECT DISTINCT receipt_line_item_id
			FROM job_cost_entries
			WHERE owner_type = 'work_order' AND owner_id = $1
			  AND receipt_line_item_id IS NOT NULL
		)
		GROUP BY li.id, li.line_number, li.description, li.line_total
		ORDER BY li.id
	`, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("query allocated lines: %w", err)
	}
	defer rows.Close()

	var flagged []LineAllocationStatus
	for rows.Next() {
		var ls LineAllocationStatus
		if err := rows.Scan(&ls.LineItemID, &ls.LineNumber, &ls.Description, &ls.LineTotal, &ls.AllocatedTotal); err != nil {
			return nil, fmt.Errorf("scan allocated line: %w", err)
		}
		ls.UnallocatedTotal = ls.LineTotal.Sub(ls.AllocatedTotal)
		ls.Status = ClassifyAllocation(ls.LineTotal, ls.AllocatedTotal)
		if ls.Status == TagOverAllocated {
			flagged = append(flagged, ls)
		}
	}
	return flagged, nil
}
