package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// SQLite is the durable Store. Writes run in WAL mode so a record is
// either fully present or absent; there is no partial-record state for
// readers to observe.
type SQLite struct {
	db   *sql.DB
	path string
}

// timeFormats are the timestamp layouts accepted when reading rows back.
var timeFormats = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// OpenSQLite opens (creating if needed) the store at path.
func OpenSQLite(path string) (*SQLite, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	s := &SQLite{db: db, path: path}

	if err := s.configure(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to configure store: %w", err)
	}
	if err := s.createSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// Path returns the store file path.
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (s *SQLite) createSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS invocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invocation_id TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		tool TEXT NOT NULL,
		command TEXT NOT NULL,
		raw_units INTEGER DEFAULT 0,
		compact_units INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		success INTEGER DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_invocations_timestamp ON invocations(timestamp);
	CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool);
	`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Append implements Store.
func (s *SQLite) Append(rec *Record) error {
	if rec.InvocationID == "" {
		rec.InvocationID = NewInvocationID()
	}
	timestamp := rec.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
		rec.Timestamp = timestamp
	}

	query := `
		INSERT INTO invocations (
			invocation_id, timestamp, tool, command,
			raw_units, compact_units, duration_ms, success
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(context.Background(), query,
		rec.InvocationID,
		timestamp.UTC().Format("2006-01-02 15:04:05"),
		rec.Tool,
		rec.Command,
		rec.RawUnits,
		rec.CompactUnits,
		rec.DurationMs,
		boolToInt(rec.Success),
	)
	if err != nil {
		return fmt.Errorf("failed to insert invocation: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		rec.ID = id
	}

	return nil
}

const selectColumns = `
	SELECT id, invocation_id, timestamp, tool, command,
		   raw_units, compact_units, duration_ms, success
	FROM invocations
`

// All implements Store.
func (s *SQLite) All() ([]Record, error) {
	rows, err := s.db.QueryContext(context.Background(),
		selectColumns+` ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	return scanRecords(rows)
}

// Range implements Store. Both bounds are inclusive.
func (s *SQLite) Range(from, to time.Time) ([]Record, error) {
	rows, err := s.db.QueryContext(context.Background(),
		selectColumns+` WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC, id ASC`,
		from.UTC().Format("2006-01-02 15:04:05"),
		to.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocation range: %w", err)
	}
	return scanRecords(rows)
}

// Recent returns the newest records, newest first. The dashboard uses it
// for its activity panel.
func (s *SQLite) Recent(limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(context.Background(),
		selectColumns+` ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent invocations: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var rec Record
		var ts string
		var success int

		err := rows.Scan(
			&rec.ID,
			&rec.InvocationID,
			&ts,
			&rec.Tool,
			&rec.Command,
			&rec.RawUnits,
			&rec.CompactUnits,
			&rec.DurationMs,
			&success,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}

		rec.Timestamp, err = parseTimeString(ts)
		if err != nil {
			return nil, err
		}
		rec.Success = success != 0
		records = append(records, rec)
	}

	return records, rows.Err()
}

// parseTimeString tries the known timestamp layouts in order.
func parseTimeString(s string) (time.Time, error) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Close checkpoints the WAL and closes the store.
func (s *SQLite) Close() error {
	_, _ = s.db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}
