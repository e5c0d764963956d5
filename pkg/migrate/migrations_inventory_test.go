package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/dispensary-pos/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks ...string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_inventory"),
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"CREATE TABLE IF NOT EXISTS categories",
		"CHECK (available_stock >= 0)",
		"CHECK (reserved_stock >= 0)",
		"pricing_options jsonb NOT NULL",
		"DROP TABLE IF EXISTS inventory_items",
	)
}

func TestOrdersMigrationRestrictsStatus(t *testing.T) {
	assertContains(t, readMigration(t, "create_orders"),
		"status text NOT NULL DEFAULT 'pending'",
		"CHECK (status IN ('pending', 'fulfilled', 'cancelled'))",
		"REFERENCES members(uid)",
	)
}

func TestTransactionsMigrationEnforcesTotals(t *testing.T) {
	assertContains(t, readMigration(t, "create_transactions"),
		"CHECK (discount_amount >= 0 AND discount_amount <= subtotal)",
		"CHECK (final_total = subtotal - discount_amount + tax_amount)",
	)
}

func TestInvoicesMigrationHasUniqueNumber(t *testing.T) {
	assertContains(t, readMigration(t, "create_invoices"),
		"CONSTRAINT invoices_invoice_number_key UNIQUE (invoice_number)",
		"CHECK (status IN ('issued', 'paid', 'void'))",
	)
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	if err := migrate.ValidateEmbedded(); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "  Add Loyalty Points! ")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_loyalty_points.sql") {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration invalid: %v", err)
	}
}

func TestCreateSQLMigrationRejectsOlderVersion(t *testing.T) {
	dir := t.TempDir()
	future := filepath.Join(dir, "29991231235959_far_future.sql")
	if err := os.WriteFile(future, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("seed migration: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "next"); err == nil {
		t.Fatal("expected error for version older than existing migration")
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"20260101000000_no_down.sql":  "-- +goose Up\nSELECT 1;\n",
		"20260101000000_reversed.sql": "-- +goose Down\n-- +goose Up\n",
		"not_versioned.sql":           "-- +goose Up\n-- +goose Down\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := migrate.ValidateDir(dir); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}
