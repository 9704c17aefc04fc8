package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TimeEntryService records technician clock-in/clock-out against work orders.
// Open entries (clocked in, not yet out) block work-order close-out.
type TimeEntryService interface {
	ClockIn(ctx context.Context, workOrderID, technicianID int, notes string) (*TimeEntry, error)
	ClockOut(ctx context.Context, entryID int) (*TimeEntry, error)
	ListEntries(ctx context.Context, workOrderID int) ([]TimeEntry, error)
	ListOpenEntries(ctx context.Context, workOrderID int) ([]TimeEntry, error)
}

type timeEntryService struct {
	pool  *pgxpool.Pool
	audit AuditRecorder
}

// NewTimeEntryService constructs a TimeEntryService backed by PostgreSQL.
func NewTimeEntryService(pool *pgxpool.Pool, audit AuditRecorder) TimeEntryService {
	return &timeEntryService{pool: pool, audit: audit}
}

func (s *timeEntryService) ClockIn(ctx context.Context, workOrderID, technicianID int, notes string) (*TimeEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status WorkOrderStatus
	err = tx.QueryRow(ctx, "SELECT status FROM work_orders WHERE id = $1", workOrderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "work order", Ref: fmt.Sprint(workOrderID)}
		}
		return nil, fmt.Errorf("fetch work order %d: %w", workOrderID, err)
	}
	if IsTerminal(status) {
		return nil, &ConflictError{
			Message: fmt.Sprintf("cannot clock in on a %s work order", status),
		}
	}

	// One open entry per technician per work order.
	var openCount int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM time_entries
		WHERE work_order_id = $1 AND technician_id = $2 AND clock_out IS NULL
	`, workOrderID, technicianID).Scan(&openCount); err != nil {
		return nil, fmt.Errorf("check open entries: %w", err)
	}
	if openCount > 0 {
		return nil, &ConflictError{
			Message: fmt.Sprintf("technician %d is already clocked in on work order %d", technicianID, workOrderID),
		}
	}

	entry := &TimeEntry{WorkOrderID: workOrderID, TechnicianID: technicianID, Notes: notes}
	err = tx.QueryRow(ctx, `
		INSERT INTO time_entries (work_order_id, technician_id, clock_in, notes)
		VALUES ($1, $2, now(), $3)
		RETURNING id, clock_in
	`, workOrderID, technicianID, notes).Scan(&entry.ID, &entry.ClockIn)
	if err != nil {
		return nil, fmt.Errorf("insert time entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit clock-in: %w", err)
	}

	s.audit.Record(ctx, AuditEvent{
		Type:     "time_entry.clock_in",
		Entity:   "time_entry",
		EntityID: entry.ID,
		After:    fmt.Sprintf("work_order=%d technician=%d", workOrderID, technicianID),
	})
	return entry, nil
}

func (s *timeEntryService) ClockOut(ctx context.Context, entryID int) (*TimeEntry, error) {
	entry := &TimeEntry{ID: entryID}
	var clockOut time.Time
	err := s.pool.QueryRow(ctx, `
		UPDATE time_entries
		SET clock_out = now()
		WHERE id = $1 AND clock_out IS NULL
		RETURNING work_order_id, technician_id, clock_in, clock_out, COALESCE(notes, '')
	`, entryID).Scan(&entry.WorkOrderID, &entry.TechnicianID, &entry.ClockIn, &clockOut, &entry.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the entry does not exist or it is already closed.
			var exists bool
			if checkErr := s.pool.QueryRow(ctx,
				"SELECT EXISTS(SELECT 1 FROM time_entries WHERE id = $1)", entryID,
			).Scan(&exists); checkErr == nil && exists {
				return nil, &ConflictError{Message: fmt.Sprintf("time entry %d is already clocked out", entryID)}
			}
			return nil, &NotFoundError{Entity: "time entry", Ref: fmt.Sprint(entryID)}
		}
		return nil, fmt.Errorf("clock out entry %d: %w", entryID, err)
	}
	entry.ClockOut = &clockOut

	s.audit.Record(ctx, AuditEvent{
		Type:     "time_entry.clock_out",
		Entity:   "time_entry",
		EntityID: entry.ID,
		After:    fmt.Sprintf("work_order=%d technician=%d", entry.WorkOrderID, entry.TechnicianID),
	})
	return entry, nil
}

func (s *timeEntryService) ListEntries(ctx context.Context, workOrderID int) ([]TimeEntry, error) {
	return s.listEntries(ctx, workOrderID, false)
}

// ListOpenEntries returns entries with no clock-out. The close-out validator
// uses this to refuse closing while work is still on the clock.
func (s *timeEntryService) ListOpenEntries(ctx context.Context, workOrderID int) ([]TimeEntry, error) {
	return s.listEntries(ctx, workOrderID, true)
}

func (s *timeEntryService) listEntries(ctx context.Context, workOrderID int, openOnly bool) ([]TimeEntry, error) {
	query := `
		SELECT id, work_order_id, technician_id, clock_in, clock_out, COALESCE(notes, '')
		FROM time_entries
		WHERE work_order_id = $1`
	if openOnly {
		query += " AND clock_out IS NULL"
	}
	query += " ORDER BY clock_in"

	rows, err := s.pool.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		var e TimeEntry
		if err := rows.Scan(&e.ID, &e.WorkOrderID, &e.TechnicianID, &e.ClockIn, &e.ClockOut, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
