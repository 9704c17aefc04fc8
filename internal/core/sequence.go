package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NumberService hands out gapless document numbers per kind (work orders,
// receipts, projects). It is injected into the services that need it so
// tests can substitute a deterministic counter.
type NumberService interface {
	// Next allocates the next number in its own transaction.
	Next(ctx context.Context, kind string) (string, error)
	// NextTx allocates the next number inside the caller's transaction, so a
	// rolled-back create never burns a number.
	NextTx(ctx context.Context, tx pgx.Tx, kind string) (string, error)
}

// Sequence kinds.
const (
	KindWorkOrder = "work_order"
	KindReceipt   = "receipt"
	KindProject   = "project"
)

var numberPrefixes = map[string]string{
	KindWorkOrder: "WO",
	KindReceipt:   "RCT",
	KindProject:   "PRJ",
}

type numberService struct {
	pool *pgxpool.Pool
}

// NewNumberService constructs a NumberService backed by the
// number_sequences table.
func NewNumberService(pool *pgxpool.Pool) NumberService {
	return &numberService{pool: pool}
}

func (s *numberService) Next(ctx context.Context, kind string) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := s.NextTx(ctx, tx, kind)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit sequence: %w", err)
	}
	return n, nil
}

// NextTx increments the counter row with an upsert. The row lock taken by
// the UPDATE serializes concurrent callers for the same kind.
func (s *numberService) NextTx(ctx context.Context, tx pgx.Tx, kind string) (string, error) {
	prefix, ok := numberPrefixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown sequence kind %q", kind)
	}

	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO number_sequences (kind, last_number)
		VALUES ($1, 1)
		ON CONFLICT (kind)
		DO UPDATE SET last_number = number_sequences.last_number + 1
		RETURNING last_number
	`, kind).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("advance sequence %q: %w", kind, err)
	}

	return fmt.Sprintf("%s-%05d", prefix, lastNumber), nil
}
