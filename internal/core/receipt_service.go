package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReceiptInput is the input for creating a receipt with its lines.
type ReceiptInput struct {
	VendorID    int
	ReceiptDate string // YYYY-MM-DD
	Notes       string
	Lines       []ReceiptLineInput
}

// ReceiptService manages receipts and their line items. Line totals are
// computed and rounded once at write time; allocations are always compared
// against the stored line_total, never a recomputed product.
type ReceiptService interface {
	CreateReceipt(ctx context.Context, input ReceiptInput) (*Receipt, error)
	GetReceipt(ctx context.Context, receiptID int) (*Receipt, error)
	GetReceipts(ctx context.Context) ([]Receipt, error)
	UpdateLineItem(ctx context.Context, lineItemID int, input ReceiptLineInput) (*ReceiptLineItem, error)
}

type receiptService struct {
	pool    *pgxpool.Pool
	numbers NumberService
	audit   AuditRecorder
}

// NewReceiptService constructs a ReceiptService backed by PostgreSQL.
func NewReceiptService(pool *pgxpool.Pool, numbers NumberService, audit AuditRecorder) ReceiptService {
	return &receiptService{pool: pool, numbers: numbers, audit: audit}
}

func validateLineInput(input ReceiptLineInput) error {
	var issues []string
	if input.Description == "" {
		issues = append(issues, "line description is required")
	}
	if !input.Quantity.IsPositive() {
		issues = append(issues, "quantity must be positive")
	}
	if input.UnitCost.IsNegative() {
		issues = append(issues, "unit cost must not be negative")
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func (s *receiptService) CreateReceipt(ctx context.Context, input ReceiptInput) (*Receipt, error) {
	if input.ReceiptDate == "" {
		return nil, &MissingDataError{Field: "receipt_date"}
	}
	if len(input.Lines) == 0 {
		return nil, &MissingDataError{Field: "lines", Detail: "a receipt needs at least one line item"}
	}
	for i, line := range input.Lines {
		if err := validateLineInput(line); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return nil, &ValidationError{Issues: []string{fmt.Sprintf("line %d: %s", i+1, ve.Error())}}
			}
			return nil, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var vendorExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM vendors WHERE id = $1 AND is_active = true)", input.VendorID,
	).Scan(&vendorExists); err != nil {
		return nil, fmt.Errorf("validate vendor: %w", err)
	}
	if !vendorExists {
		return nil, &NotFoundError{Entity: "vendor", Ref: fmt.Sprint(input.VendorID)}
	}

	number, err := s.numbers.NextTx(ctx, tx, KindReceipt)
	if err != nil {
		return nil, err
	}

	var receiptID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO receipts (number, vendor_id, receipt_date, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, number, input.VendorID, input.ReceiptDate, input.Notes).Scan(&receiptID); err != nil {
		return nil, fmt.Errorf("insert receipt: %w", err)
	}

	for i, line := range input.Lines {
		lineTotal := LineAmount(line.Quantity, line.UnitCost)
		if _, err := tx.Exec(ctx, `
			INSERT INTO receipt_line_items (receipt_id, line_number, description, quantity, unit_cost, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, receiptID, i+1, line.Description, line.Quantity, line.UnitCost, lineTotal); err != nil {
			return nil, fmt.Errorf("insert receipt line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit receipt creation: %w", err)
	}

	s.audit.Record(ctx, AuditEvent{
		Type:     "receipt.created",
		Entity:   "receipt",
		EntityID: receiptID,
		After:    fmt.Sprintf("number=%s vendor=%d lines=%d", number, input.VendorID, len(input.Lines)),
	})
	return s.GetReceipt(ctx, receiptID)
}

func (s *receiptService) GetReceipt(ctx context.Context, receiptID int) (*Receipt, error) {
	return fetchReceipt(ctx, s.pool, receiptID)
}

func fetchReceipt(ctx context.Context, q pgxQuerier, receiptID int) (*Receipt, error) {
	var r Receipt
	err := q.QueryRow(ctx, `
		SELECT r.id, r.number, r.vendor_id, v.code, v.name, r.receipt_date::text, COALESCE(r.notes, ''), r.created_at
		FROM receipts r
		JOIN vendors v ON v.id = r.vendor_id
		WHERE r.id = $1
	`, receiptID).Scan(
		&r.ID, &r.Number, &r.VendorID, &r.VendorCode, &r.VendorName, &r.ReceiptDate, &r.Notes, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "receipt", Ref: fmt.Sprint(receiptID)}
		}
		return nil, fmt.Errorf("fetch receipt %d: %w", receiptID, err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, receipt_id, line_number, description, quantity, unit_cost, line_total, created_at
		FROM receipt_line_items
		WHERE receipt_id = $1
		ORDER BY line_number
	`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("query receipt lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var li ReceiptLineItem
		if err := rows.Scan(
			&li.ID, &li.ReceiptID, &li.LineNumber, &li.Description,
			&li.Quantity, &li.UnitCost, &li.LineTotal, &li.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan receipt line: %w", err)
		}
		r.Lines = append(r.Lines, li)
	}
	return &r, nil
}

func (s *receiptService) GetReceipts(ctx context.Context) ([]Receipt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.number, r.vendor_id, v.code, v.name, r.receipt_date::text, COALESCE(r.notes, ''), r.created_at
		FROM receipts r
		JOIN vendors v ON v.id = r.vendor_id
		ORDER BY r.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		var r Receipt
		if err := rows.Scan(
			&r.ID, &r.Number, &r.VendorID, &r.VendorCode, &r.VendorName, &r.ReceiptDate, &r.Notes, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}

// UpdateLineItem re-prices a line. The new line total may not drop below the
// amount already allocated from the line, so existing job costs never become
// overallocated by an edit.
func (s *receiptService) UpdateLineItem(ctx context.Context, lineItemID int, input ReceiptLineInput) (*ReceiptLineItem, error) {
	if err := validateLineInput(input); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var li ReceiptLineItem
	err = tx.QueryRow(ctx, `
		SELECT id, receipt_id, line_number, created_at
		FROM receipt_line_items
		WHERE id = $1
		FOR UPDATE
	`, lineItemID).Scan(&li.ID, &li.ReceiptID, &li.LineNumber, &li.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "receipt line item", Ref: fmt.Sprint(lineItemID)}
		}
		return nil, fmt.Errorf("lock receipt line %d: %w", lineItemID, err)
	}

	allocated, err := allocatedForLine(ctx, tx, lineItemID)
	if err != nil {
		return nil, err
	}

	newTotal := LineAmount(input.Quantity, input.UnitCost)
	if newTotal.LessThan(allocated.Sub(MoneyEpsilon)) {
		return nil, &ConflictError{
			Message: fmt.Sprintf("cannot reduce line total to $%s: $%s already allocated",
				newTotal.StringFixed(2), allocated.StringFixed(2)),
			Requested: newTotal,
			Remaining: allocated,
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE receipt_line_items
		SET description = $2, quantity = $3, unit_cost = $4, line_total = $5
		WHERE id = $1
		RETURNING description, quantity, unit_cost, line_total
	`, lineItemID, input.Description, input.Quantity, input.UnitCost, newTotal).Scan(
		&li.Description, &li.Quantity, &li.UnitCost, &li.LineTotal,
	)
	if err != nil {
		return nil, fmt.Errorf("update receipt line %d: %w", lineItemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit line update: %w", err)
	}

	s.audit.Record(ctx, AuditEvent{
		Type:     "receipt.line_updated",
		Entity:   "receipt_line_item",
		EntityID: lineItemID,
		After:    fmt.Sprintf("line_total=%s", newTotal.StringFixed(2)),
	})
	return &li, nil
}

// allocatedForLine sums the job-cost amounts charged against one receipt line.
func allocatedForLine(ctx context.Context, q pgxQuerier, lineItemID int) (decimal.Decimal, error) {
	var allocated decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM job_cost_entries
		WHERE receipt_line_item_id = $1
	`, lineItemID).Scan(&allocated)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum allocations for line %d: %w", lineItemID, err)
	}
	return allocated, nil
}
