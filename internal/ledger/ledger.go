// Package ledger implements RunLedger (SPEC_FULL.md §2.11): a local
// SQLite file tracking which (batch, variant) pairs an output directory
// already has a result for, so a re-invocation of locate-from-db can
// resume without recomputing finished pairs.
//
// Grounded on jengzang-records-backend-go's modernc.org/sqlite driver
// choice (pure-Go, cgo-free, a natural fit for a small embedded ledger
// file living next to each run's output directory).
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ageo-project/locate-from-db/internal/ageoerr"
)

// Ledger records completed (batch_id, variant) pairs.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if necessary) the ledger file at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ageoerr.Wrap(ageoerr.KindIO, "open run ledger "+path, err)
	}
	// The ledger is written by every worker goroutine; modernc.org/sqlite
	// serializes writers internally, but capping the pool avoids SQLITE_BUSY
	// pile-ups under concurrent access.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS completed (
		batch_id INTEGER NOT NULL,
		variant  TEXT    NOT NULL,
		tag      TEXT    NOT NULL,
		PRIMARY KEY (batch_id, variant)
	)`); err != nil {
		db.Close()
		return nil, ageoerr.Wrap(ageoerr.KindIO, "create ledger schema", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Done reports whether (batchID, variant) has already been marked
// complete in a prior run.
func (l *Ledger) Done(ctx context.Context, batchID int64, variant string) (bool, error) {
	var tag string
	err := l.db.QueryRowContext(ctx,
		`SELECT tag FROM completed WHERE batch_id = ? AND variant = ?`, batchID, variant).Scan(&tag)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger: query done: %w", err)
	}
	return true, nil
}

// MarkDone records (batchID, variant) as complete, under the output tag
// it was written with (spec.md §4.8's variant or error tag).
func (l *Ledger) MarkDone(ctx context.Context, batchID int64, variant, tag string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO completed (batch_id, variant, tag) VALUES (?, ?, ?)
		 ON CONFLICT (batch_id, variant) DO UPDATE SET tag = excluded.tag`,
		batchID, variant, tag)
	if err != nil {
		return fmt.Errorf("ledger: mark done: %w", err)
	}
	return nil
}
