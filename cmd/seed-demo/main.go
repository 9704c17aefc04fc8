// seed-demo loads a small demo dataset: an admin user, master data and a few
// work orders. Safe to re-run; every insert is an upsert keyed on the natural
// code.
//
// Usage: go run ./cmd/seed-demo
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"zenith-fieldservice/internal/db"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding users...")
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "changeme"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES
		  ('admin', 'admin@example.com', $1, 'admin'),
		  ('tech1', 'tech1@example.com', $1, 'technician'),
		  ('tech2', 'tech2@example.com', $1, 'technician')
		ON CONFLICT (username) DO UPDATE
		  SET password_hash = EXCLUDED.password_hash;
	`, string(hash))
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Println("Seeding customers...")
	_, err = tx.Exec(ctx, `
		INSERT INTO customers (code, name, email, phone)
		VALUES
		  ('ACME', 'Acme Property Group', 'facilities@acme.example', '555-0100'),
		  ('NSTAR', 'Northstar Logistics', 'ops@northstar.example', '555-0101'),
		  ('BVD', 'Boulevard Dental', 'office@boulevard.example', '555-0102')
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name;
	`)
	if err != nil {
		log.Fatalf("Failed to seed customers: %v", err)
	}

	log.Println("Seeding vendors...")
	_, err = tx.Exec(ctx, `
		INSERT INTO vendors (code, name, payment_terms_days)
		VALUES
		  ('GRAING', 'Grainger Industrial Supply', 30),
		  ('FERG', 'Ferguson Plumbing', 30),
		  ('HDPRO', 'Home Depot Pro', 15)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name;
	`)
	if err != nil {
		log.Fatalf("Failed to seed vendors: %v", err)
	}

	log.Println("Seeding parts...")
	_, err = tx.Exec(ctx, `
		INSERT INTO parts (code, name, unit)
		VALUES
		  ('PVC-34', '3/4in PVC Pipe', 'ft'),
		  ('CU-12', '1/2in Copper Pipe', 'ft'),
		  ('FLT-20', '20x20 HVAC Filter', 'ea'),
		  ('WIRE-12G', '12 Gauge Wire', 'ft')
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name;
	`)
	if err != nil {
		log.Fatalf("Failed to seed parts: %v", err)
	}

	log.Println("Seeding cost types and codes...")
	_, err = tx.Exec(ctx, `
		INSERT INTO cost_types (name)
		VALUES ('Material'), ('Labor'), ('Equipment'), ('Subcontract')
		ON CONFLICT (name) DO NOTHING;

		INSERT INTO cost_codes (cost_type_id, code, name)
		SELECT ct.id, cc.code, cc.name
		FROM cost_types ct
		CROSS JOIN (VALUES
		    ('Material', 'MAT-PLUMB', 'Plumbing Materials'),
		    ('Material', 'MAT-ELEC',  'Electrical Materials'),
		    ('Material', 'MAT-HVAC',  'HVAC Materials'),
		    ('Labor',    'LAB-FIELD', 'Field Labor'),
		    ('Labor',    'LAB-OT',    'Overtime Labor'),
		    ('Equipment','EQP-RENT',  'Equipment Rental')
		) AS cc(type_name, code, name)
		WHERE ct.name = cc.type_name
		ON CONFLICT (cost_type_id, code) DO UPDATE SET name = EXCLUDED.name;
	`)
	if err != nil {
		log.Fatalf("Failed to seed cost categorization: %v", err)
	}

	log.Println("Seeding work orders...")
	_, err = tx.Exec(ctx, `
		INSERT INTO number_sequences (kind, last_number)
		VALUES ('work_order', 2)
		ON CONFLICT (kind) DO UPDATE
		  SET last_number = GREATEST(number_sequences.last_number, 2);

		INSERT INTO work_orders (number, customer_id, location, priority, description, status, contract_total)
		SELECT wo.number, c.id, wo.location, wo.priority, wo.description, 'UNSCHEDULED', wo.total::numeric
		FROM customers c
		CROSS JOIN (VALUES
		    ('WO-00001', 'ACME', '12 Harbor Way, Unit 4', 'NORMAL', 'Replace rooftop HVAC filters and inspect ductwork', '850.00'),
		    ('WO-00002', 'BVD',  '240 Main St',           'HIGH',   'Repair water leak behind operatory 3',            '1200.00')
		) AS wo(number, customer_code, location, priority, description, total)
		WHERE c.code = wo.customer_code
		ON CONFLICT (number) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed work orders: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data loaded successfully.")
}
