package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// AuditEvent captures a state change for the audit trail.
type AuditEvent struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Entity   string    `json:"entity"`
	EntityID int       `json:"entity_id"`
	Before   string    `json:"before,omitempty"`
	After    string    `json:"after,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Actor    string    `json:"actor,omitempty"`
	At       time.Time `json:"at"`
}

// AuditRecorder appends events to the audit trail. Recording is
// fire-and-forget: a failed write is logged and never blocks the primary
// operation.
type AuditRecorder interface {
	Record(ctx context.Context, ev AuditEvent)
}

type pgAuditRecorder struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// NewAuditRecorder constructs an AuditRecorder backed by the audit_events
// table.
func NewAuditRecorder(pool *pgxpool.Pool, log *logrus.Logger) AuditRecorder {
	return &pgAuditRecorder{pool: pool, log: log}
}

func (r *pgAuditRecorder) Record(ctx context.Context, ev AuditEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	// The primary operation's context may already be done; the audit write
	// still gets a short grace period.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (id, event_type, entity, entity_id, before, after, reason, actor, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ev.ID, ev.Type, ev.Entity, ev.EntityID, ev.Before, ev.After, ev.Reason, ev.Actor, ev.At)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"event_type": ev.Type,
			"entity":     ev.Entity,
			"entity_id":  ev.EntityID,
		}).WithError(err).Error("audit event write failed")
	}
}

// NopAuditRecorder discards all events. Used in tests.
type NopAuditRecorder struct{}

func (NopAuditRecorder) Record(context.Context, AuditEvent) {}
