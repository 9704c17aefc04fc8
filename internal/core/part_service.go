package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PartService manages the material master. Parts are optional references on
// job-cost entries and feed the material usage rollup.
type PartService interface {
	CreatePart(ctx context.Context, code, name, unit string) (*Part, error)
	GetParts(ctx context.Context) ([]Part, error)
	GetPartByCode(ctx context.Context, code string) (*Part, error)
}

type partService struct {
	pool *pgxpool.Pool
}

// NewPartService constructs a PartService backed by PostgreSQL.
func NewPartService(pool *pgxpool.Pool) PartService {
	return &partService{pool: pool}
}

func (s *partService) CreatePart(ctx context.Context, code, name, unit string) (*Part, error) {
	if code == "" {
		return nil, &MissingDataError{Field: "code"}
	}
	if name == "" {
		return nil, &MissingDataError{Field: "name"}
	}
	if unit == "" {
		unit = "ea"
	}

	var p Part
	err := s.pool.QueryRow(ctx, `
		INSERT INTO parts (code, name, unit)
		VALUES ($1, $2, $3)
		RETURNING id, code, name, unit, is_active, created_at
	`, code, name, unit).Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create part %q: %w", code, err)
	}
	return &p, nil
}

func (s *partService) GetParts(ctx context.Context) ([]Part, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, unit, is_active, created_at
		FROM parts
		WHERE is_active = true
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("query parts: %w", err)
	}
	defer rows.Close()

	var parts []Part
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func (s *partService) GetPartByCode(ctx context.Context, code string) (*Part, error) {
	var p Part
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, name, unit, is_active, created_at
		FROM parts
		WHERE code = $1
	`, code).Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "part", Ref: code}
		}
		return nil, fmt.Errorf("fetch part %q: %w", code, err)
	}
	return &p, nil
}
