package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerService manages customer master data.
type CustomerService interface {
	CreateCustomer(ctx context.Context, code, name, email, phone, address string) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int) (*Customer, error)
	GetCustomers(ctx context.Context) ([]Customer, error)
}

type customerService struct {
	pool *pgxpool.Pool
}

// NewCustomerService constructs a CustomerService backed by PostgreSQL.
func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

func (s *customerService) CreateCustomer(ctx context.Context, code, name, email, phone, address string) (*Customer, error) {
	if code == "" {
		return nil, &MissingDataError{Field: "code"}
	}
	if name == "" {
		return nil, &MissingDataError{Field: "name"}
	}

	var c Customer
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (code, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, code, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), is_active, created_at
	`, code, name, email, phone, address).Scan(
		&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create customer %q: %w", code, err)
	}
	return &c, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), is_active, created_at
		FROM customers
		WHERE id = $1
	`, customerID).Scan(
		&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "customer", Ref: fmt.Sprint(customerID)}
		}
		return nil, fmt.Errorf("fetch customer %d: %w", customerID, err)
	}
	return &c, nil
}

func (s *customerService) GetCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), is_active, created_at
		FROM customers
		WHERE is_active = true
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, nil
}
