package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AllocationInput is the input for allocating part of a receipt line to a
// cost owner. The allocated amount is computed as RoundMoney(qty × unit cost)
// inside the engine, not supplied by the caller.
type AllocationInput struct {
	LineItemID  int
	Owner       CostOwner
	CostTypeID  *int
	CostCodeID  *int
	PartID      *int
	Description string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	EnteredBy   string
}

// ManualEntryInput is the input for a direct job-cost entry with no source
// receipt.
type ManualEntryInput struct {
	Owner       CostOwner
	CostTypeID  *int
	CostCodeID  *int
	PartID      *int
	Description string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	EnteredBy   string
}

// AllocationResult pairs the created entry with the line's remaining
// unallocated amount after the write.
type AllocationResult struct {
	Entry            *JobCostEntry   `json:"entry"`
	UnallocatedTotal decimal.Decimal `json:"unallocated_total"`
}

// BulkReceiptResult reports the outcome for one receipt in a bulk run.
type BulkReceiptResult struct {
	ReceiptID int             `json:"receipt_id"`
	Number    string          `json:"number"`
	Allocated decimal.Decimal `json:"allocated"`
	Entries   int             `json:"entries"`
	Skipped   bool            `json:"skipped"`
	Reason    string          `json:"reason,omitempty"`
}

// AllocationService is the receipt allocation engine. Every admission check
// runs against a FOR UPDATE locked line row, so concurrent allocations to the
// same line are serialized and the sum of allocations can never exceed the
// line total.
type AllocationService interface {
	CreateAllocation(ctx context.Context, input AllocationInput) (*AllocationResult, error)
	CreateManualEntry(ctx context.Context, input ManualEntryInput) (*JobCostEntry, error)
	BulkAllocateReceipts(ctx context.Context, receiptIDs []int, owner CostOwner, costTypeID, costCodeID *int, enteredBy string) ([]BulkReceiptResult, error)
	GetReceiptAllocationStatus(ctx context.Context, receiptID int) (*ReceiptAllocationStatus, error)
	ListLineAllocationStatuses(ctx context.Context, receiptID int) ([]LineAllocationStatus, error)
	ListEntriesForOwner(ctx context.Context, owner CostOwner) ([]JobCostEntry, error)
}

type allocationService struct {
	pool  *pgxpool.Pool
	audit AuditRecorder
}

// NewAllocationService constructs an AllocationService backed by PostgreSQL.
func NewAllocationService(pool *pgxpool.Pool, audit AuditRecorder) AllocationService {
	return &allocationService{pool: pool, audit: audit}
}

func (s *allocationService) CreateAllocation(ctx context.Context, input AllocationInput) (*AllocationResult, error) {
	if err := input.Owner.Validate(); err != nil {
		return nil, err
	}
	var issues []string
	if !input.Quantity.IsPositive() {
		issues = append(issues, "quantity must be positive")
	}
	if input.UnitCost.IsNegative() {
		issues = append(issues, "unit cost must not be negative")
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	// The positivity check runs on the rounded amount: 1 × 0.004 rounds to
	// 0.00 and must be refused, not stored as a zero-amount entry.
	amount := LineAmount(input.Quantity, input.UnitCost)
	if !amount.IsPositive() {
		return nil, &ValidationError{Issues: []string{"allocation amount must be positive after rounding"}}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkOwner(ctx, tx, input.Owner); err != nil {
		return nil, err
	}
	if input.CostCodeID != nil {
		if input.CostTypeID == nil {
			return nil, &ValidationError{Issues: []string{"cost code requires a cost type"}}
		}
		if err := costCodeMatchesType(ctx, tx, *input.CostCodeID, *input.CostTypeID); err != nil {
			return nil, err
		}
	}

	// Lock the line. Concurrent allocations against the same line queue here,
	// and each sees the sums committed by the writers before it.
	var receiptID int
	var lineTotal decimal.Decimal
	var lineDescription string
	err = tx.QueryRow(ctx, `
		SELECT receipt_id, line_total, description
		FROM receipt_line_items
		WHERE id = $1
		FOR UPDATE
	`, input.LineItemID).Scan(&receiptID, &lineTotal, &lineDescription)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "receipt line item", Ref: fmt.Sprint(input.LineItemID)}
		}
		return nil, fmt.Errorf("lock receipt line %d: %w", input.LineItemID, err)
	}

	allocated, err := allocatedForLine(ctx, tx, input.LineItemID)
	if err != nil {
		return nil, err
	}
	remaining := lineTotal.Sub(allocated)
	if amount.GreaterThan(remaining) {
		return nil, newOverAllocationError(amount, remaining)
	}

	description := input.Description
	if description == "" {
		description = lineDescription
	}

	entry, err := insertJobCostEntry(ctx, tx, JobCostEntry{
		ReceiptID:         &receiptID,
		ReceiptLineItemID: &input.LineItemID,
		Owner:             input.Owner,
		CostTypeID:        input.CostTypeID,
		CostCodeID:        input.CostCodeID,
		PartID:            input.PartID,
		Description:       description,
		Quantity:          input.Quantity,
		UnitCost:          input.UnitCost,
		Amount:            amount,
		EnteredBy:         input.EnteredBy,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit allocation: %w", err)
	}

	s.audit.Record(ctx, AuditEvent{
		Type:     "job_cost.allocated",
		Entity:   "job_cost_entry",
		EntityID: entry.ID,
		After: fmt.Sprintf("line=%d owner=%s:%d amount=%s",
			input.LineItemID, input.Owner.Kind, input.Owner.ID, amount.StringFixed(2)),
		Actor: input.EnteredBy,
	})
	return &AllocationResult{
		Entry:            entry,
		UnallocatedTotal: remaining.Sub(amount),
	}, nil
}

// CreateManualEntry records a direct job cost with no receipt behind it.
// There is no ceiling to check, but the owner rules still apply.
func (s *allocationService) CreateManualEntry(ctx context.Context, input ManualEntryInput) (*JobCostEntry, error) {
	if err := input.Owner.Validate(); err != nil {
		return nil, err
	}
	var issues []string
	if input.Description == "" {
		issues = append(issues, "description is required")
	}
	if !input.Quantity.IsPositive() {
		issues = append(issues, "quantity must be positive")
	}
	if input.UnitCost.IsNegative() {
		issues = append(issues, "unit cost must not be negative")
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkOwner(ctx, tx, input.Owner); err != nil {
		return nil, err
	}
	if input.CostCodeID != nil {
		if input.CostTypeID == nil {
			return nil, &ValidationError{Issues: []string{"cost code requires a cost type"}}
		}
		if err := costCodeMatchesType(ctx, tx, *input.CostCodeID, *input.CostTypeID); err != nil {
			return nil, err
		}
	}

	entry, err := insertJobCostEntry(ctx, tx, JobCostEntry{
		Owner:       input.Owner,
		CostTypeID:  input.CostTypeID,
		CostCodeID:  input.CostCodeID,
		PartID:      input.PartID,
		Description: input.Description,
		Quantity:    input.Quantity,
		UnitCost:    input.UnitCost,
		Amount:      LineAmount(input.Quantity, input.UnitCost),
		EnteredBy:   input.EnteredBy,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit manual entry: %w", err)
	}

	s.audit.Record(ctx, AuditEvent{
		Type:     "job_cost.manual_entry",
		Entity:   "job_cost_entry",
		EntityID: entry.ID,
		After: fmt.Sprintf("owner=%s:%d amount=%s",
			input.Owner.Kind, input.Owner.ID, entry.Amount.StringFixed(2)),
		Actor: input.EnteredBy,
	})
	return entry, nil
}

// BulkAllocateReceipts allocates each receipt's full remaining amount to one
// owner under one cost type/code pair. Each receipt runs in its own
// transaction, so one failure skips that receipt and the rest of the batch
// still lands. Fully-allocated receipts are skipped, not failed.
func (s *allocationService) BulkAllocateReceipts(ctx context.Context, receiptIDs []int, owner CostOwner, costTypeID, costCodeID *int, enteredBy string) ([]BulkReceiptResult, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	// The pair is shared by every entry in the batch, so it is checked once.
	if costCodeID != nil {
		if costTypeID == nil {
			return nil, &ValidationError{Issues: []string{"cost code requires a cost type"}}
		}
		if err := costCodeMatchesType(ctx, s.pool, *costCodeID, *costTypeID); err != nil {
			return nil, err
		}
	}

	results := make([]BulkReceiptResult, 0, len(receiptIDs))
	for _, receiptID := range receiptIDs {
		result, err := s.bulkAllocateOne(ctx, receiptID, owner, costTypeID, costCodeID, enteredBy)
		if err != nil {
			results = append(results, BulkReceiptResult{
				ReceiptID: receiptID,
				Skipped:   true,
				Reason:    err.Error(),
			})
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

func (s *allocationService) bulkAllocateOne(ctx context.Context, receiptID int, owner CostOwner, costTypeID, costCodeID *int, enteredBy string) (*BulkReceiptResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var number string
	err = tx.QueryRow(ctx, "SELECT number FROM receipts WHERE id = $1", receiptID).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "receipt", Ref: fmt.Sprint(receiptID)}
		}
		return nil, fmt.Errorf("fetch receipt %d: %w", receiptID, err)
	}

	if err := checkOwner(ctx, tx, owner); err != nil {
		return nil, err
	}

	// Lock all lines in primary-key order so concurrent bulk runs over
	// overlapping receipts cannot deadlock.
	rows, err := tx.Query(ctx, `
		SELECT id, description, line_total
		FROM receipt_line_items
		WHERE receipt_id = $1
		ORDER BY id
		FOR UPDATE
	`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("lock receipt lines: %w", err)
	}
	type lockedLine struct {
		id          int
		description string
		total       decimal.Decimal
	}
	var lines []lockedLine
	for rows.Next() {
		var l lockedLine
		if err := rows.Scan(&l.id, &l.description, &l.total); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan receipt line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()

	total := decimal.Zero
	entries := 0
	for _, line := range lines {
		allocated, err := allocatedForLine(ctx, tx, line.id)
		if err != nil {
			return nil, err
		}
		remaining := line.total.Sub(allocated)
		if !remaining.IsPositive() {
			continue
		}

		if _, err := insertJobCostEntry(ctx, tx, JobCostEntry{
			ReceiptID:         &receiptID,
			ReceiptLineItemID: &line.id,
			Owner:             owner,
			CostTypeID:        costTypeID,
			CostCodeID:        costCodeID,
			Description:       line.description,
			Quantity:          decimal.NewFromInt(1),
			UnitCost:          remaining,
			Amount:            remaining,
			EnteredBy:         enteredBy,
		}); err != nil {
			return nil, err
		}
		total = total.Add(remaining)
		entries++
	}

	if entries == 0 {
		return nil, &ConflictError{Message: fmt.Sprintf("receipt %s is already fully allocated", number)}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit bulk allocation: %w", err)
	}

	s.audit.Record(ctx, AuditEvent{
		Type:     "job_cost.bulk_allocated",
		Entity:   "receipt",
		EntityID: receiptID,
		After: fmt.Sprintf("owner=%s:%d amount=%s entries=%d",
			owner.Kind, owner.ID, total.StringFixed(2), entries),
		Actor: enteredBy,
	})
	return &BulkReceiptResult{
		ReceiptID: receiptID,
		Number:    number,
		Allocated: total,
		Entries:   entries,
	}, nil
}

func (s *allocationService) GetReceiptAllocationStatus(ctx context.Context, receiptID int) (*ReceiptAllocationStatus, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM receipts WHERE id = $1)", receiptID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check receipt: %w", err)
	}
	if !exists {
		return nil, &NotFoundError{Entity: "receipt", Ref: fmt.Sprint(receiptID)}
	}

	var linesTotal, allocated decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(li.line_total), 0),
		       COALESCE((SELECT SUM(jce.amount)
		                 FROM job_cost_entries jce
		                 JOIN receipt_line_items l ON l.id = jce.receipt_line_item_id
		                 WHERE l.receipt_id = $1), 0)
		FROM receipt_line_items li
		WHERE li.receipt_id = $1
	`, receiptID).Scan(&linesTotal, &allocated)
	if err != nil {
		return nil, fmt.Errorf("sum receipt %d allocations: %w", receiptID, err)
	}

	return &ReceiptAllocationStatus{
		ReceiptID:        receiptID,
		LinesTotal:       linesTotal,
		AllocatedTotal:   allocated,
		UnallocatedTotal: linesTotal.Sub(allocated),
		Status:           ClassifyAllocation(linesTotal, allocated),
	}, nil
}

func (s *allocationService) ListLineAllocationStatuses(ctx context.Context, receiptID int) ([]LineAllocationStatus, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT li.id, li.line_number, li.description, li.line_total,
		       COALESCE(SUM(jce.amount), 0)
		FROM receipt_line_items li
		LEFT JOIN job_cost_entries jce ON jce.receipt_line_item_id = li.id
		WHERE li.receipt_id = $1
		GROUP BY li.id, li.line_number, li.description, li.line_total
		ORDER BY li.line_number
	`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("query line statuses: %w", err)
	}
	defer rows.Close()

	var statuses []LineAllocationStatus
	for rows.Next() {
		var ls LineAllocationStatus
		if err := rows.Scan(&ls.LineItemID, &ls.LineNumber, &ls.Description, &ls.LineTotal, &ls.AllocatedTotal); err != nil {
			return nil, fmt.Errorf("scan line status: %w", err)
		}
		ls.UnallocatedTotal = ls.LineTotal.Sub(ls.AllocatedTotal)
		ls.Status = ClassifyAllocation(ls.LineTotal, ls.AllocatedTotal)
		statuses = append(statuses, ls)
	}
	return statuses, nil
}

func (s *allocationService) ListEntriesForOwner(ctx context.Context, owner CostOwner) ([]JobCostEntry, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, receipt_id, receipt_line_item_id, owner_type, owner_id,
		       cost_type_id, cost_code_id, part_id,
		       description, quantity, unit_cost, amount, COALESCE(entered_by, ''), created_at
		FROM job_cost_entries
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY id
	`, owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("query job cost entries: %w", err)
	}
	defer rows.Close()

	var entries []JobCostEntry
	for rows.Next() {
		var e JobCostEntry
		if err := rows.Scan(
			&e.ID, &e.ReceiptID, &e.ReceiptLineItemID, &e.Owner.Kind, &e.Owner.ID,
			&e.CostTypeID, &e.CostCodeID, &e.PartID,
			&e.Description, &e.Quantity, &e.UnitCost, &e.Amount, &e.EnteredBy, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job cost entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// checkOwner verifies that the cost owner exists and can still take costs.
// Closed and canceled work orders are locked against further cost changes.
func checkOwner(ctx context.Context, q pgxQuerier, owner CostOwner) error {
	switch owner.Kind {
	case OwnerProject:
		var exists bool
		if err := q.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)", owner.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check project: %w", err)
		}
		if !exists {
			return &NotFoundError{Entity: "project", Ref: fmt.Sprint(owner.ID)}
		}
	case OwnerWorkOrder:
		var status WorkOrderStatus
		err := q.QueryRow(ctx, "SELECT status FROM work_orders WHERE id = $1", owner.ID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &NotFoundError{Entity: "work order", Ref: fmt.Sprint(owner.ID)}
			}
			return fmt.Errorf("check work order: %w", err)
		}
		if status == StatusClosed || status == StatusCanceled {
			return &ConflictError{
				Message: fmt.Sprintf("work order %d is %s and cannot take new costs", owner.ID, status),
			}
		}
	default:
		return &ValidationError{Issues: []string{"owner kind must be 'project' or 'work_order'"}}
	}
	return nil
}

func insertJobCostEntry(ctx context.Context, tx pgx.Tx, e JobCostEntry) (*JobCostEntry, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO job_cost_entries
			(receipt_id, receipt_line_item_id, owner_type, owner_id,
			 cost_type_id, cost_code_id, part_id,
			 description, quantity, unit_cost, amount, entered_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`, e.ReceiptID, e.ReceiptLineItemID, e.Owner.Kind, e.Owner.ID,
		e.CostTypeID, e.CostCodeID, e.PartID,
		e.Description, e.Quantity, e.UnitCost, e.Amount, e.EnteredBy,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert job cost entry: %w", err)
	}
	return &e, nil
}
