package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// WorkOrderInput is the input for creating a work order.
type WorkOrderInput struct {
	CustomerID           int
	ProjectID            *int
	AssignedTechnicianID *int
	Location             string
	Priority             string
	Description          string
	ContractTotal        decimal.Decimal
}

// WorkOrderFilter narrows List results.
type WorkOrderFilter struct {
	Status     WorkOrderStatus
	CustomerID int
	ProjectID  int
}

// WorkOrderService owns the work-order lifecycle. Status never changes except
// through Transition, which validates the move, stamps the lifecycle
// timestamps and appends to the history log in one transaction.
type WorkOrderService interface {
	Create(ctx context.Context, input WorkOrderInput) (*WorkOrder, error)
	Get(ctx context.Context, workOrderID int) (*WorkOrder, error)
	List(ctx context.Context, filter WorkOrderFilter) ([]WorkOrder, error)
	Transition(ctx context.Context, workOrderID int, to WorkOrderStatus, reason, actor string) (*WorkOrder, error)
	Schedule(ctx context.Context, workOrderID int, date, actor string) (*WorkOrder, error)
	GetStatusHistory(ctx context.Context, workOrderID int) ([]StatusHistoryEntry, error)
}

type workOrderService struct {
	pool    *pgxpool.Pool
	numbers NumberService
	audit   AuditRecorder
}

// NewWorkOrderService constructs a WorkOrderService backed by PostgreSQL.
func NewWorkOrderService(pool *pgxpool.Pool, numbers NumberService, audit AuditRecorder) WorkOrderService {
	return &workOrderService{pool: pool, numbers: numbers, audit: audit}
}

func (s *workOrderService) Create(ctx context.Context, input WorkOrderInput) (*WorkOrder, error) {
	if input.Description == "" {
		return nil, &MissingDataError{Field: "description"}
	}
	if input.ContractTotal.IsNegative() {
		return nil, &ValidationError{Issues: []string{"contract total must not be negative"}}
	}
	priority := input.Priority
	if priority == "" {
		priority = "NORMAL"
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND is_active = true)", input.CustomerID,
	).Scan(&customerExists); err != nil {
		return nil, fmt.Errorf("validate customer: %w", err)
	}
	if !customerExists {
		return nil, &NotFoundError{Entity: "customer", Ref: fmt.Sprint(input.CustomerID)}
	}

	if input.ProjectID != nil {
		var projectCustomerID int
		err := tx.QueryRow(ctx, "SELECT customer_id FROM projects WHERE id = $1", *input.ProjectID).Scan(&projectCustomerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &NotFoundError{Entity: "project", Ref: fmt.Sprint(*input.ProjectID)}
			}
			return nil, fmt.Errorf("validate project: %w", err)
		}
		if projectCustomerID != input.CustomerID {
			return nil, &ValidationError{Issues: []string{
				fmt.Sprintf("project %d belongs to a different customer", *input.ProjectID),
			}}
		}
	}

	number, err := s.numbers.NextTx(ctx, tx, KindWorkOrder)
	if err != nil {
		return nil, err
	}

	var workOrderID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO work_orders
			(number, customer_id, project_id, assigned_technician_id,
			 location, priority, description, status, contract_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, number, input.CustomerID, input.ProjectID, input.AssignedTechnicianID,
		input.Location, priority, input.Description, StatusUnscheduled, input.ContractTotal,
	).Scan(&workOrderID); err != nil {
		return nil, fmt.Errorf("insert work order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit work order creation: %w", err)
	}

	s.audit.Record(ctx, AuditEvent{
		Type:     "work_order.created",
		Entity:   "work_order",
		EntityID: workOrderID,
		After:    fmt.Sprintf("number=%s status=%s", number, StatusUnscheduled),
	})
	return s.Get(ctx, workOrderID)
}

func (s *workOrderService) Get(ctx context.Context, workOrderID int) (*WorkOrder, error) {
	return fetchWorkOrder(ctx, s.pool, workOrderID)
}

const workOrderColumns = `
	w.id, w.number, w.customer_id, c.name, w.project_id, w.assigned_technician_id,
	COALESCE(w.location, ''), w.priority, COALESCE(w.description, ''), w.status, w.contract_total,
	w.scheduled_for::text, w.opened_at, w.completed_at, w.closed_at, w.canceled_at`

func scanWorkOrder(row pgx.Row) (*WorkOrder, error) {
	var w WorkOrder
	err := row.Scan(
		&w.ID, &w.Number, &w.CustomerID, &w.CustomerName, &w.ProjectID, &w.AssignedTechnicianID,
		&w.Location, &w.Priority, &w.Description, &w.Status, &w.ContractTotal,
		&w.ScheduledFor, &w.OpenedAt, &w.CompletedAt, &w.ClosedAt, &w.CanceledAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func fetchWorkOrder(ctx context.Context, q pgxQuerier, workOrderID int) (*WorkOrder, error) {
	w, err := scanWorkOrder(q.QueryRow(ctx, `
		SELECT`+workOrderColumns+`
		FROM work_orders w
		JOIN customers c ON c.id = w.customer_id
		WHERE w.id = $1
	`, workOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "work order", Ref: fmt.Sprint(workOrderID)}
		}
		return nil, fmt.Errorf("fetch work order %d: %w", workOrderID, err)
	}
	return w, nil
}

func (s *workOrderService) List(ctx context.Context, filter WorkOrderFilter) ([]WorkOrder, error) {
	query := `
		SELECT` + workOrderColumns + `
		FROM work_orders w
		JOIN customers c ON c.id = w.customer_id
		WHERE 1=1`
	var args []any
	if filter.Status != "" {
		if !ValidStatus(filter.Status) {
			return nil, &ValidationError{Issues: []string{fmt.Sprintf("unknown status %q", filter.Status)}}
		}
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND w.status = $%d", len(args))
	}
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND w.customer_id = $%d", len(args))
	}
	if filter.ProjectID != 0 {
		args = append(args, filter.ProjectID)
		query += fmt.Sprintf(" AND w.project_id = $%d", len(args))
	}
	query += " ORDER BY w.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query work orders: %w", err)
	}
	defer rows.Close()

	var orders []WorkOrder
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work order: %w", err)
		}
		orders = append(orders, *w)
	}
	return orders, nil
}

// Transition moves a work order to a new status. The row is locked FOR UPDATE
// for the duration of the check-and-write, so two concurrent transitions on
// the same order serialize and the second is validated against the first's
// result. Closing additionally runs the close-out checks inside the same
// transaction; any blocking issue aborts the transition with all issues
// attached.
func (s *workOrderService) Transition(ctx context.Context, workOrderID int, to WorkOrderStatus, reason, actor string) (*WorkOrder, error) {
	if !ValidStatus(to) {
		return nil, &ValidationError{Issues: []string{fmt.Sprintf("unknown status %q", to)}}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var from WorkOrderStatus
	err = tx.QueryRow(ctx,
		"SELECT status FROM work_orders WHERE id = $1 FOR UPDATE", workOrderID,
	).Scan(&from)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "work order", Ref: fmt.Sprint(workOrderID)}
		}
		return nil, fmt.Errorf("lock work order %d: %w", workOrderID, err)
	}

	if err := CheckTransition(from, to, reason); err != nil {
		return nil, err
	}

	if to == StatusClosed {
		result, err := evaluateCloseOut(ctx, tx, workOrderID)
		if err != nil {
			return nil, err
		}
		if !result.CanClose {
			return nil, &ValidationError{Issues: result.Issues}
		}
	}

	if err := stampTransition(ctx, tx, workOrderID, from, to); err != nil {
		return nil, err
	}

	var reasonPtr *string
	if r := reason; r != "" {
		reasonPtr = &r
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO work_order_status_history (work_order_id, from_status, to_status, reason, actor)
		VALUES ($1, $2, $3, $4, $5)
	`, workOrderID, from, to, reasonPtr, actor); err != nil {
		return nil, fmt.Errorf("append status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}

	s.audit.Record(ctx, AuditEvent{
		Type:     "work_order.transitioned",
		Entity:   "work_order",
		EntityID: workOrderID,
		Before:   string(from),
		After:    string(to),
		Reason:   reason,
		Actor:    actor,
	})
	return s.Get(ctx, workOrderID)
}

// stampTransition updates the status and the lifecycle timestamps. Entering
// COMPLETED stamps completed_at; reopening back to IN_PROGRESS clears it, so
// the timestamp always reflects the completion that is currently in effect.
func stampTransition(ctx context.Context, tx pgx.Tx, workOrderID int, from, to WorkOrderStatus) error {
	var set string
	switch {
	case to == StatusCompleted:
		set = ", completed_at = now()"
	case from == StatusCompleted && to == StatusInProgress:
		set = ", completed_at = NULL"
	case to == StatusClosed:
		set = ", closed_at = now()"
	case to == StatusCanceled:
		set = ", canceled_at = now()"
	case to == StatusUnscheduled:
		set = ", scheduled_for = NULL"
	}

	if _, err := tx.Exec(ctx,
		"UPDATE work_orders SET status = $2"+set+" WHERE id = $1",
		workOrderID, to,
	); err != nil {
		return fmt.Errorf("update work order status: %w", err)
	}
	return nil
}

// Schedule sets the scheduled date and, if the order is UNSCHEDULED, moves it
// to SCHEDULED in the same call.
func (s *workOrderService) Schedule(ctx context.Context, workOrderID int, date, actor string) (*WorkOrder, error) {
	if date == "" {
		return nil, &MissingDataError{Field: "date"}
	}

	w, err := s.Get(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if w.Status != StatusUnscheduled && w.Status != StatusScheduled {
		return nil, &InvalidTransitionError{From: w.Status, To: StatusScheduled}
	}

	if _, err := s.pool.Exec(ctx,
		"UPDATE work_orders SET scheduled_for = $2 WHERE id = $1",
		workOrderID, date,
	); err != nil {
		return nil, fmt.Errorf("set scheduled date: %w", err)
	}

	if w.Status == StatusUnscheduled {
		return s.Transition(ctx, workOrderID, StatusScheduled, "", actor)
	}
	return s.Get(ctx, workOrderID)
}

func (s *workOrderService) GetStatusHistory(ctx context.Context, workOrderID int) ([]StatusHistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, work_order_id, from_status, to_status, reason, COALESCE(actor, ''), created_at
		FROM work_order_status_history
		WHERE work_order_id = $1
		ORDER BY id
	`, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var history []StatusHistoryEntry
	for rows.Next() {
		var h StatusHistoryEntry
		if err := rows.Scan(&h.ID, &h.WorkOrderID, &h.FromStatus, &h.ToStatus, &h.Reason, &h.Actor, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		history = append(history, h)
	}
	return history, nil
}
