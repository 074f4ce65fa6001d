// Package store persists the attempt audit log to sqlite so batch runs can
// be inspected after the process exits.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/receipt-cli/internal/model"
)

// AuditLog is an append-only sqlite-backed attempt log.
type AuditLog struct {
	db *sql.DB
}

// Open opens (or creates) the audit database at the given path and
// configures WAL mode.
func Open(dsn string) (*AuditLog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &AuditLog{db: db}, nil
}

const auditMigration = `
CREATE TABLE IF NOT EXISTS attempts (
	id             TEXT PRIMARY KEY,
	correlation_id TEXT NOT NULL,
	provider       TEXT NOT NULL,
	success        INTEGER NOT NULL,
	cost_usd       REAL NOT NULL,
	duration_ms    INTEGER NOT NULL,
	result         TEXT,
	error          TEXT,
	recorded_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_attempts_correlation_id ON attempts(correlation_id);
CREATE INDEX IF NOT EXISTS idx_attempts_provider ON attempts(provider);
`

// Migrate creates the attempts table if it does not exist.
func (l *AuditLog) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, auditMigration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying database.
func (l *AuditLog) Close() error {
	return l.db.Close()
}

// RecordAttempt appends one attempt row.
func (l *AuditLog) RecordAttempt(ctx context.Context, att model.Attempt) error {
	var resultJSON *string
	if att.Result != nil {
		data, err := json.Marshal(att.Result)
		if err != nil {
			return eris.Wrap(err, "store: marshal result")
		}
		s := string(data)
		resultJSON = &s
	}

	success := 0
	if att.Success {
		success = 1
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO attempts (id, correlation_id, provider, success, cost_usd, duration_ms, result, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), att.CorrelationID, string(att.Provider), success,
		att.CostUSD, att.DurationMS, resultJSON, att.Err, time.Now().UTC(),
	)
	return eris.Wrap(err, "store: insert attempt")
}

// ListAttempts returns attempts for a correlation ID in insertion order.
func (l *AuditLog) ListAttempts(ctx context.Context, correlationID string) ([]model.Attempt, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT correlation_id, provider, success, cost_usd, duration_ms, result, error
		 FROM attempts WHERE correlation_id = ? ORDER BY rowid`,
		correlationID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list attempts")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Attempt
	for rows.Next() {
		var att model.Attempt
		var success int
		var resultJSON, errText sql.NullString
		if err := rows.Scan(&att.CorrelationID, &att.Provider, &success, &att.CostUSD, &att.DurationMS, &resultJSON, &errText); err != nil {
			return nil, eris.Wrap(err, "store: scan attempt")
		}
		att.Success = success == 1
		att.Err = errText.String
		if resultJSON.Valid && resultJSON.String != "" {
			var res model.ExtractionResult
			if err := json.Unmarshal([]byte(resultJSON.String), &res); err != nil {
				return nil, eris.Wrap(err, "store: unmarshal result")
			}
			att.Result = &res
		}
		out = append(out, att)
	}
	return out, rows.Err()
}
