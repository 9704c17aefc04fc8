package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// testFixtures holds the IDs of the rows seeded by setupTestDB.
type testFixtures struct {
	customerID       int
	vendorID         int
	technicianID     int
	materialTypeID   int
	laborTypeID      int
	plumbingCodeID   int
	fieldLaborCodeID int
	partID           int
}

func setupTestDB(t *testing.T) (*pgxpool.Pool, testFixtures) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE audit_events, job_cost_entries, receipt_line_items, receipts,
			time_entries, work_order_status_history, work_orders, number_sequences,
			cost_codes, cost_types, parts, vendors, projects, customers, users
			RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	var f testFixtures
	err = pool.QueryRow(ctx, `
		INSERT INTO customers (code, name) VALUES ('C001', 'Test Customer') RETURNING id
	`).Scan(&f.customerID)
	if err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO vendors (code, name) VALUES ('V001', 'Test Vendor') RETURNING id
	`).Scan(&f.vendorID)
	if err != nil {
		t.Fatalf("Failed to seed vendor: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ('tech1', 'x', 'technician') RETURNING id
	`).Scan(&f.technicianID)
	if err != nil {
		t.Fatalf("Failed to seed technician: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO cost_types (name) VALUES ('Material') RETURNING id
	`).Scan(&f.materialTypeID)
	if err != nil {
		t.Fatalf("Failed to seed material cost type: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO cost_types (name) VALUES ('Labor') RETURNING id
	`).Scan(&f.laborTypeID)
	if err != nil {
		t.Fatalf("Failed to seed labor cost type: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO cost_codes (cost_type_id, code, name)
		VALUES ($1, 'MAT-PLUMB', 'Plumbing Materials') RETURNING id
	`, f.materialTypeID).Scan(&f.plumbingCodeID)
	if err != nil {
		t.Fatalf("Failed to seed plumbing cost code: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO cost_codes (cost_type_id, code, name)
		VALUES ($1, 'LAB-FIELD', 'Field Labor') RETURNING id
	`, f.laborTypeID).Scan(&f.fieldLaborCodeID)
	if err != nil {
		t.Fatalf("Failed to seed labor cost code: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO parts (code, name, unit) VALUES ('PVC-34', '3/4in PVC Pipe', 'ft') RETURNING id
	`).Scan(&f.partID)
	if err != nil {
		t.Fatalf("Failed to seed part: %v", err)
	}

	return pool, f
}
