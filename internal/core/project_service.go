package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectService manages project master data. Projects are one of the two
// possible owners of job-cost entries.
type ProjectService interface {
	CreateProject(ctx context.Context, customerID int, name string) (*Project, error)
	GetProject(ctx context.Context, projectID int) (*Project, error)
	GetProjects(ctx context.Context) ([]Project, error)
}

type projectService struct {
	pool    *pgxpool.Pool
	numbers NumberService
}

// NewProjectService constructs a ProjectService backed by PostgreSQL.
func NewProjectService(pool *pgxpool.Pool, numbers NumberService) ProjectService {
	return &projectService{pool: pool, numbers: numbers}
}

func (s *projectService) CreateProject(ctx context.Context, customerID int, name string) (*Project, error) {
	if name == "" {
		return nil, &MissingDataError{Field: "name"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND is_active = true)", customerID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("validate customer: %w", err)
	}
	if !exists {
		return nil, &NotFoundError{Entity: "customer", Ref: fmt.Sprint(customerID)}
	}

	number, err := s.numbers.NextTx(ctx, tx, KindProject)
	if err != nil {
		return nil, err
	}

	var projectID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO projects (number, customer_id, name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, number, customerID, name).Scan(&projectID); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit project creation: %w", err)
	}
	return s.GetProject(ctx, projectID)
}

func (s *projectService) GetProject(ctx context.Context, projectID int) (*Project, error) {
	var p Project
	err := s.pool.QueryRow(ctx, `
		SELECT p.id, p.number, p.customer_id, c.name, p.name, p.is_active, p.created_at
		FROM projects p
		JOIN customers c ON c.id = p.customer_id
		WHERE p.id = $1
	`, projectID).Scan(
		&p.ID, &p.Number, &p.CustomerID, &p.CustomerName, &p.Name, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "project", Ref: fmt.Sprint(projectID)}
		}
		return nil, fmt.Errorf("fetch project %d: %w", projectID, err)
	}
	return &p, nil
}

func (s *projectService) GetProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.number, p.customer_id, c.name, p.name, p.is_active, p.created_at
		FROM projects p
		JOIN customers c ON c.id = p.customer_id
		WHERE p.is_active = true
		ORDER BY p.number
	`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Number, &p.CustomerID, &p.CustomerName, &p.Name, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}
