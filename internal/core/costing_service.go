package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CostBucket is one row of a job-cost rollup: a grouping key, its label and
// the summed amount.
type CostBucket struct {
	Key   *int            `json:"key,omitempty"` // nil for the Uncategorized bucket
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// PartUsage is one row of the material usage rollup.
type PartUsage struct {
	PartID   int             `json:"part_id"`
	PartCode string          `json:"part_code"`
	PartName string          `json:"part_name"`
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// CostSummary is the full rollup for one cost owner.
type CostSummary struct {
	Owner      CostOwner       `json:"owner"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	ByCostType []CostBucket    `json:"by_cost_type"`
	ByCostCode []CostBucket    `json:"by_cost_code"`
}

// CostingService rolls up job-cost entries per owner. Entries with no cost
// type or code land in an Uncategorized bucket rather than being dropped, so
// every rollup's grand total matches the sum of the underlying entries.
type CostingService interface {
	Summary(ctx context.Context, owner CostOwner) (*CostSummary, error)
	MaterialUsage(ctx context.Context, owner CostOwner) ([]PartUsage, error)
}

type costingService struct {
	pool *pgxpool.Pool
}

// NewCostingService constructs a CostingService backed by PostgreSQL.
func NewCostingService(pool *pgxpool.Pool) CostingService {
	return &costingService{pool: pool}
}

func (s *costingService) Summary(ctx context.Context, owner CostOwner) (*CostSummary, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := checkOwnerExists(ctx, s.pool, owner); err != nil {
		return nil, err
	}

	byType, err := s.rollup(ctx, owner, `
		SELECT jce.cost_type_id, COALESCE(ct.name, 'Uncategorized'), SUM(jce.amount), COUNT(*)
		FROM job_cost_entries jce
		LEFT JOIN cost_types ct ON ct.id = jce.cost_type_id
		WHERE jce.owner_type = $1 AND jce.owner_id = $2
		GROUP BY jce.cost_type_id, ct.name
		ORDER BY ct.name NULLS LAST
	`)
	if err != nil {
		return nil, err
	}

	byCode, err := s.rollup(ctx, owner, `
		SELECT jce.cost_code_id, COALESCE(cc.code || ' ' || cc.name, 'Uncategorized'), SUM(jce.amount), COUNT(*)
		FROM job_cost_entries jce
		LEFT JOIN cost_codes cc ON cc.id = jce.cost_code_id
		WHERE jce.owner_type = $1 AND jce.owner_id = $2
		GROUP BY jce.cost_code_id, cc.code, cc.name
		ORDER BY cc.code NULLS LAST
	`)
	if err != nil {
		return nil, err
	}

	grand := decimal.Zero
	for _, b := range byType {
		grand = grand.Add(b.Total)
	}

	return &CostSummary{
		Owner:      owner,
		GrandTotal: grand,
		ByCostType: byType,
		ByCostCode: byCode,
	}, nil
}

func (s *costingService) rollup(ctx context.Context, owner CostOwner, query string) ([]CostBucket, error) {
	rows, err := s.pool.Query(ctx, query, owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("query cost rollup: %w", err)
	}
	defer rows.Close()

	var buckets []CostBucket
	for rows.Next() {
		var b CostBucket
		if err := rows.Scan(&b.Key, &b.Label, &b.Total, &b.Count); err != nil {
			return nil, fmt.Errorf("scan cost bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

// MaterialUsage sums quantities and amounts per part. Entries without a part
// reference do not appear here; they are cost data, not material usage.
func (s *costingService) MaterialUsage(ctx context.Context, owner CostOwner) ([]PartUsage, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := checkOwnerExists(ctx, s.pool, owner); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.code, p.name, p.unit, SUM(jce.quantity), SUM(jce.amount)
		FROM job_cost_entries jce
		JOIN parts p ON p.id = jce.part_id
		WHERE jce.owner_type = $1 AND jce.owner_id = $2
		GROUP BY p.id, p.code, p.name, p.unit
		ORDER BY p.code
	`, owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("query material usage: %w", err)
	}
	defer rows.Close()

	var usage []PartUsage
	for rows.Next() {
		var u PartUsage
		if err := rows.Scan(&u.PartID, &u.PartCode, &u.PartName, &u.Unit, &u.Quantity, &u.Total); err != nil {
			return nil, fmt.Errorf("scan part usage: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, nil
}

// checkOwnerExists verifies the owner exists without the terminal-status
// rules; rollups over closed work orders are expected reads.
func checkOwnerExists(ctx context.Context, q pgxQuerier, owner CostOwner) error {
	var table string
	switch owner.Kind {
	case OwnerProject:
		table = "projects"
	case OwnerWorkOrder:
		table = "work_orders"
	default:
		return &ValidationError{Issues: []string{"owner kind must be 'project' or 'work_order'"}}
	}
	var exists bool
	if err := q.QueryRow(ctx,
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table), owner.ID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check %s: %w", owner.Kind, err)
	}
	if !exists {
		return &NotFoundError{Entity: string(owner.Kind), Ref: fmt.Sprint(owner.ID)}
	}
	return nil
}
