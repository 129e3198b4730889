package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect captures the SQL differences between the supported drivers
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DialectFor maps a config driver name to a Dialect
func DialectFor(driver string) Dialect {
	if driver == "postgres" {
		return Postgres
	}
	return SQLite
}

// Rebind rewrites ? placeholders to $n for postgres
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate is the row lock suffix. SQLite locks the whole database on
// write and has no row locks.
func (d Dialect) forUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Timestamps are stored as unix milliseconds.
func toUnix(t time.Time) int64 {
	return t.UnixMilli()
}

func fromUnix(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// expiryUnix rounds up to the next millisecond so a stored deadline is never
// earlier than the one computed in memory
func expiryUnix(t time.Time) int64 {
	return t.Add(time.Millisecond - time.Nanosecond).UnixMilli()
}

func nullExpiry(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: expiryUnix(*t), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromUnix(v.Int64)
	return &t
}
