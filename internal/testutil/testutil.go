package testutil

import (
	"database/sql"
	"io/fs"
	"sort"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pulseai/pulseai/migrations"
)

// NewTestDB creates an in-memory SQLite database with the real schema
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	schema, err := migrations.For("sqlite")
	if err != nil {
		t.Fatalf("Failed to load migrations: %v", err)
	}

	names, err := fs.Glob(schema, "*.sql")
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := fs.ReadFile(schema, name)
		if err != nil {
			t.Fatalf("Failed to read migration %s: %v", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			t.Fatalf("Failed to apply migration %s: %v", name, err)
		}
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// SeedUser inserts a user with the given free-tier usage and returns its id
func SeedUser(t *testing.T, db *sql.DB, phone string, freeUsed int) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO users (phone, is_verified, free_requests_used, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		phone, false, freeUsed, time.Now().UnixMilli(),
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return id
}

// SubscriptionSeed describes a subscription row for SeedSubscription
type SubscriptionSeed struct {
	PlanType      string
	RequestsTotal *int
	RequestsUsed  int
	IsUnlimited   bool
	ExpiresAt     *time.Time
	Inactive      bool
	CreatedAt     time.Time
}

// SeedSubscription inserts a subscription row and returns its id
func SeedSubscription(t *testing.T, db *sql.DB, userID int64, s SubscriptionSeed) int64 {
	t.Helper()

	if s.PlanType == "" {
		s.PlanType = "starter"
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	var total, expires sql.NullInt64
	if s.RequestsTotal != nil {
		total = sql.NullInt64{Int64: int64(*s.RequestsTotal), Valid: true}
	}
	if s.ExpiresAt != nil {
		expires = sql.NullInt64{Int64: s.ExpiresAt.UnixMilli(), Valid: true}
	}

	var id int64
	err := db.QueryRow(`
		INSERT INTO subscriptions (user_id, plan_type, requests_total, requests_used, is_unlimited, expires_at, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		userID, s.PlanType, total, s.RequestsUsed, s.IsUnlimited, expires, !s.Inactive, s.CreatedAt.UnixMilli(),
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed subscription: %v", err)
	}
	return id
}

// CountRows returns the number of rows in table matching an optional where clause
func CountRows(t *testing.T, db *sql.DB, table, where string, args ...interface{}) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}

	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
