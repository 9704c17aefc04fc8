package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VendorInput is the input for creating a vendor.
type VendorInput struct {
	Code             string
	Name             string
	ContactPerson    string
	Email            string
	Phone            string
	Address          string
	PaymentTermsDays int
}

// VendorService manages vendor master data. Receipts always reference a
// vendor.
type VendorService interface {
	CreateVendor(ctx context.Context, input VendorInput) (*Vendor, error)
	GetVendors(ctx context.Context) ([]Vendor, error)
	GetVendorByCode(ctx context.Context, code string) (*Vendor, error)
}

type vendorService struct {
	pool *pgxpool.Pool
}

// NewVendorService constructs a VendorService backed by PostgreSQL.
func NewVendorService(pool *pgxpool.Pool) VendorService {
	return &vendorService{pool: pool}
}

func (s *vendorService) CreateVendor(ctx context.Context, input VendorInput) (*Vendor, error) {
	if input.Code == "" {
		return nil, &MissingDataError{Field: "code"}
	}
	if input.Name == "" {
		return nil, &MissingDataError{Field: "name"}
	}

	paymentTerms := input.PaymentTermsDays
	if paymentTerms == 0 {
		paymentTerms = 30
	}

	toPtr := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}

	v := &Vendor{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO vendors (code, name, contact_person, email, phone, address, payment_terms_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, code, name, contact_person, email, phone, address, payment_terms_days, is_active, created_at`,
		input.Code, input.Name, toPtr(input.ContactPerson), toPtr(input.Email),
		toPtr(input.Phone), toPtr(input.Address), paymentTerms,
	).Scan(
		&v.ID, &v.Code, &v.Name,
		&v.ContactPerson, &v.Email, &v.Phone, &v.Address,
		&v.PaymentTermsDays, &v.IsActive, &v.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create vendor %q: %w", input.Code, err)
	}
	return v, nil
}

// GetVendors returns all active vendors, ordered by code.
func (s *vendorService) GetVendors(ctx context.Context) ([]Vendor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, contact_person, email, phone, address, payment_terms_days, is_active, created_at
		FROM vendors
		WHERE is_active = true
		ORDER BY code`,
	)
	if err != nil {
		return nil, fmt.Errorf("get vendors: %w", err)
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(
			&v.ID, &v.Code, &v.Name,
			&v.ContactPerson, &v.Email, &v.Phone, &v.Address,
			&v.PaymentTermsDays, &v.IsActive, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, nil
}

func (s *vendorService) GetVendorByCode(ctx context.Context, code string) (*Vendor, error) {
	v := &Vendor{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, name, contact_person, email, phone, address, payment_terms_days, is_active, created_at
		FROM vendors
		WHERE code = $1`,
		code,
	).Scan(
		&v.ID, &v.Code, &v.Name,
		&v.ContactPerson, &v.Email, &v.Phone, &v.Address,
		&v.PaymentTermsDays, &v.IsActive, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "vendor", Ref: code}
		}
		return nil, fmt.Errorf("fetch vendor %q: %w", code, err)
	}
	return v, nil
}
