package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Every connection to ":memory:" gets its own empty database, so the
	// schema and the pragmas below must live on a single shared connection.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the goose migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS positions (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			owner_id VARCHAR(36) NOT NULL,
			symbol VARCHAR(10) NOT NULL,
			name VARCHAR(100) NOT NULL,
			class VARCHAR(10) NOT NULL,
			current_price REAL NOT NULL,
			previous_reference REAL NOT NULL,
			quantity REAL NOT NULL DEFAULT 0,
			average_cost REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			CONSTRAINT unique_owner_symbol UNIQUE (owner_id, symbol)
		);

		CREATE INDEX IF NOT EXISTS idx_positions_owner ON positions(owner_id);

		CREATE TABLE IF NOT EXISTS transactions (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			owner_id VARCHAR(36) NOT NULL,
			position_id VARCHAR(36) NOT NULL,
			kind VARCHAR(4) NOT NULL,
			quantity REAL NOT NULL,
			price_per_unit REAL NOT NULL,
			occurred_at DATETIME NOT NULL,
			notes TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(position_id) REFERENCES positions(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_transactions_owner ON transactions(owner_id);
		CREATE INDEX IF NOT EXISTS idx_transactions_position ON transactions(position_id, occurred_at);
	`

	_, err := db.Exec(schema)
	return err
}

// CleanDatabase truncates all tables in dependency order.
// Useful for reusing the same database across multiple tests.
func CleanDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	// Order matters: delete children before parents due to foreign keys
	tables := []string{
		"transactions",
		"positions",
	}

	for _, table := range tables {
		query := "DELETE FROM " + table
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}

// CountRows returns the number of rows in a table.
// Useful for assertions in tests.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	query := "SELECT COUNT(*) FROM " + table
	err := db.QueryRow(query).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}

	return count
}

// AssertRowCount asserts that a table has the expected number of rows.
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	actual := CountRows(t, db, table)
	if actual != expected {
		t.Errorf("Expected %d rows in %s, got %d", expected, table, actual)
	}
}
