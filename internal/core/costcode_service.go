package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CostCodeService manages the two-level cost categorization. ListCostCodes
// filtered by cost type backs the dependent cost-code picker: when the
// selected type changes, the client re-fetches and resets its selection.
type CostCodeService interface {
	CreateCostType(ctx context.Context, name string) (*CostType, error)
	ListCostTypes(ctx context.Context) ([]CostType, error)
	CreateCostCode(ctx context.Context, costTypeID int, code, name string) (*CostCode, error)
	ListCostCodes(ctx context.Context, costTypeID int) ([]CostCode, error)
}

type costCodeService struct {
	pool *pgxpool.Pool
}

// NewCostCodeService constructs a CostCodeService backed by PostgreSQL.
func NewCostCodeService(pool *pgxpool.Pool) CostCodeService {
	return &costCodeService{pool: pool}
}

func (s *costCodeService) CreateCostType(ctx context.Context, name string) (*CostType, error) {
	if name == "" {
		return nil, &MissingDataError{Field: "name"}
	}
	var ct CostType
	err := s.pool.QueryRow(ctx, `
		INSERT INTO cost_types (name) VALUES ($1)
		RETURNING id, name, created_at
	`, name).Scan(&ct.ID, &ct.Name, &ct.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create cost type %q: %w", name, err)
	}
	return &ct, nil
}

func (s *costCodeService) ListCostTypes(ctx context.Context) ([]CostType, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, created_at FROM cost_types ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query cost types: %w", err)
	}
	defer rows.Close()

	var types []CostType
	for rows.Next() {
		var ct CostType
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cost type: %w", err)
		}
		types = append(types, ct)
	}
	return types, nil
}

func (s *costCodeService) CreateCostCode(ctx context.Context, costTypeID int, code, name string) (*CostCode, error) {
	if code == "" {
		return nil, &MissingDataError{Field: "code"}
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM cost_types WHERE id = $1)", costTypeID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("validate cost type: %w", err)
	}
	if !exists {
		return nil, &NotFoundError{Entity: "cost type", Ref: fmt.Sprint(costTypeID)}
	}

	var cc CostCode
	err := s.pool.QueryRow(ctx, `
		INSERT INTO cost_codes (cost_type_id, code, name)
		VALUES ($1, $2, $3)
		RETURNING id, cost_type_id, code, name, created_at
	`, costTypeID, code, name).Scan(&cc.ID, &cc.CostTypeID, &cc.Code, &cc.Name, &cc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create cost code %q: %w", code, err)
	}
	return &cc, nil
}

// ListCostCodes returns the codes belonging to one cost type, ordered by code.
func (s *costCodeService) ListCostCodes(ctx context.Context, costTypeID int) ([]CostCode, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, cost_type_id, code, name, created_at
		FROM cost_codes
		WHERE cost_type_id = $1
		ORDER BY code
	`, costTypeID)
	if err != nil {
		return nil, fmt.Errorf("query cost codes: %w", err)
	}
	defer rows.Close()

	var codes []CostCode
	for rows.Next() {
		var cc CostCode
		if err := rows.Scan(&cc.ID, &cc.CostTypeID, &cc.Code, &cc.Name, &cc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cost code: %w", err)
		}
		codes = append(codes, cc)
	}
	return codes, nil
}

// costCodeMatchesType verifies within a transaction that the cost code
// belongs to the cost type. Shared by the allocation engine's admission
// checks.
func costCodeMatchesType(ctx context.Context, q pgxQuerier, costCodeID, costTypeID int) error {
	var actualTypeID int
	err := q.QueryRow(ctx, "SELECT cost_type_id FROM cost_codes WHERE id = $1", costCodeID).Scan(&actualTypeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: "cost code", Ref: fmt.Sprint(costCodeID)}
		}
		return fmt.Errorf("fetch cost code %d: %w", costCodeID, err)
	}
	if actualTypeID != costTypeID {
		return &ValidationError{Issues: []string{
			fmt.Sprintf("cost code %d does not belong to cost type %d", costCodeID, costTypeID),
		}}
	}
	return nil
}
