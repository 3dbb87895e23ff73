// Package ledger is the usage-accounting core: durable, consistent storage
// and atomic mutation of user accounts, the message event log, and the
// per-provider rollup statistics.
//
// DESIGN: Every operation opens its own transaction against an embedded
// SQLite database and commits or rolls back before returning; no transaction
// is ever held across a vendor API call. Write transactions take the SQLite
// write lock up front (_txlock=immediate), so concurrent quota debits on the
// same account serialize inside the storage engine and the conditional
// decrement can never drive a quota negative.
//
// Storage errors never escape an operation boundary: they are logged and
// converted to a safe default return value, and the failed transaction is
// rolled back first.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/kenyap/quotabot/internal/config"
)

// sqliteTimeLayout is the CURRENT_TIMESTAMP text format.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// Ledger owns all persisted state. Safe for concurrent use.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path and applies
// the schema.
func Open(path string) (*Ledger, error) {
	dsn := fmt.Sprintf(
		"file:%s?_txlock=immediate&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		url.PathEscape(path), config.DBBusyTimeout.Milliseconds(),
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	if _, err := db.Exec(initSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising ledger schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// begin starts a write transaction.
func (l *Ledger) begin(ctx context.Context) (*sql.Tx, error) {
	return l.db.BeginTx(ctx, nil)
}

// rollback rolls back tx, logging only unexpected failures.
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		log.Error().Err(err).Msg("ledger: rollback failed")
	}
}

// parseTime parses a CURRENT_TIMESTAMP column value.
func parseTime(s string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
