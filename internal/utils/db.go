// Package utils holds small, dependency-adjacent helpers shared by more
// than one package.
package utils

import (
	"database/sql"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// OpenPostgres opens a connection pool against dsn, sized per spec.md §5's
// "one connection per worker, drawn from a shared pool" model.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	maxOpen := 50
	maxIdle := 25
	if v := os.Getenv("PG_MAX_OPEN_CONNS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil && n > 0 {
			maxOpen = n
		}
	}
	if v := os.Getenv("PG_MAX_IDLE_CONNS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil && n > 0 {
			maxIdle = n
		}
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}

// ResolveDSN returns the explicit dsn argument if non-empty, else falls
// back to DATABASE_URL, matching spec.md §6's "Environment" paragraph.
func ResolveDSN(dsn string) string {
	if dsn != "" {
		return dsn
	}
	return os.Getenv("DATABASE_URL")
}
