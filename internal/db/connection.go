package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect identifies the backing database engine.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Connection holds the database handle and its dialect.
type Connection struct {
	DB      *sql.DB
	Dialect Dialect
}

// Open connects to Postgres when databaseURL is set, otherwise to the
// SQLite file at sqlitePath. The original deployment ran SQLite locally
// and Postgres in production; both remain supported.
func Open(databaseURL, sqlitePath string) (*Connection, error) {
	if databaseURL != "" {
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping postgres database: %w", err)
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		return &Connection{DB: db, Dialect: DialectPostgres}, nil
	}

	db, err := sql.Open("sqlite", sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY during bulk loads.
	db.SetMaxOpenConns(1)
	return &Connection{DB: db, Dialect: DialectSQLite}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}

// Rebind converts `?` placeholders to `$N` for Postgres. Queries are
// written with `?` throughout; SQLite takes them as-is.
func (c *Connection) Rebind(query string) string {
	if c.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
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
