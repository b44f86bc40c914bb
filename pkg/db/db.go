package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens a SQLite database at path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Migrate creates or updates the database schema.
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		event_count INTEGER DEFAULT 0,
		warning_count INTEGER DEFAULT 0,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		record_id TEXT,
		timestamp TEXT,
		cpu INTEGER,
		bank INTEGER NOT NULL,
		processor_signature TEXT,
		status TEXT NOT NULL,
		addr TEXT,
		misc TEXT,
		valid BOOLEAN NOT NULL,
		ucr_class TEXT,
		mca_type TEXT,
		mca_code TEXT,
		meaning TEXT,
		incremental_decoded BOOLEAN DEFAULT 0,
		model_specific TEXT,
		reserved_other TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS warnings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id INTEGER NOT NULL,
		category TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS schedules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		cron_expr TEXT NOT NULL,
		path TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT 1,
		last_run_id INTEGER,
		last_run_time DATETIME,
		next_run_time DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	CREATE INDEX IF NOT EXISTS idx_runs_start_time ON runs(start_time);
	CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_ucr_class ON events(ucr_class);
	CREATE INDEX IF NOT EXISTS idx_warnings_event_id ON warnings(event_id);

	CREATE TRIGGER IF NOT EXISTS update_runs_timestamp
	AFTER UPDATE ON runs
	BEGIN
		UPDATE runs SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
	END;
	`

	_, err := db.conn.Exec(schema)
	return err
}

// CreateRun creates a new decode run record.
func (db *DB) CreateRun(source string) (*Run, error) {
	run := &Run{
		Source:    source,
		StartTime: time.Now(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	result, err := db.conn.Exec(
		`INSERT INTO runs (source, start_time, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.Source, run.StartTime, run.Error, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return run, nil
}

// UpdateRun updates a decode run record.
func (db *DB) UpdateRun(run *Run) error {
	_, err := db.conn.Exec(
		`UPDATE runs SET
		 end_time = ?, event_count = ?, warning_count = ?, error = ?, updated_at = ?
		 WHERE id = ?`,
		run.EndTime, run.EventCount, run.WarningCount, run.Error, time.Now(), run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(id int64) (*Run, error) {
	run := &Run{}
	err := db.conn.QueryRow(
		`SELECT id, source, start_time, end_time, event_count, warning_count,
		 error, created_at, updated_at
		 FROM runs WHERE id = ?`,
		id,
	).Scan(
		&run.ID, &run.Source, &run.StartTime, &run.EndTime, &run.EventCount,
		&run.WarningCount, &run.Error, &run.CreatedAt, &run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves runs based on filters.
func (db *DB) ListRuns(filter RunFilter) ([]*Run, error) {
	query := `SELECT id, source, start_time, end_time, event_count, warning_count,
	          error, created_at, updated_at
	          FROM runs WHERE 1=1`
	args := []interface{}{}

	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}
	if filter.StartTime != nil {
		query += " AND start_time >= ?"
		args = append(args, filter.StartTime)
	}
	if filter.EndTime != nil {
		query += " AND start_time <= ?"
		args = append(args, filter.EndTime)
	}

	query += " ORDER BY start_time DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(
			&run.ID, &run.Source, &run.StartTime, &run.EndTime, &run.EventCount,
			&run.WarningCount, &run.Error, &run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// CreateEvent inserts one decoded event and its warnings in a single
// transaction, returning the persisted Event with warnings excluded (use
// GetWarnings to load them back). Only Category and Detail are read off
// each Warning; EventID/CreatedAt/ID are assigned by the insert.
func (db *DB) CreateEvent(ev *Event, warnings []Warning) (*Event, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(
		`INSERT INTO events (
			run_id, record_id, timestamp, cpu, bank, processor_signature,
			status, addr, misc, valid, ucr_class, mca_type, mca_code, meaning,
			incremental_decoded, model_specific, reserved_other
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.RecordID, ev.Timestamp, ev.CPU, ev.Bank, ev.ProcessorSignature,
		ev.Status, ev.Addr, ev.Misc, ev.Valid, ev.UCRClass, ev.MCAType, ev.MCACode, ev.Meaning,
		ev.IncrementalDecoded, ev.ModelSpecific, ev.ReservedOther,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	ev.ID = id

	for _, w := range warnings {
		if _, err := tx.Exec(
			`INSERT INTO warnings (event_id, category, detail) VALUES (?, ?, ?)`, id, w.Category, w.Detail,
		); err != nil {
			return nil, fmt.Errorf("failed to create warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ev, nil
}

// GetEvent retrieves an event by ID.
func (db *DB) GetEvent(id int64) (*Event, error) {
	ev := &Event{}
	err := db.conn.QueryRow(
		`SELECT id, run_id, record_id, timestamp, cpu, bank, processor_signature,
		 status, addr, misc, valid, ucr_class, mca_type, mca_code, meaning,
		 incremental_decoded, model_specific, reserved_other, created_at
		 FROM events WHERE id = ?`,
		id,
	).Scan(
		&ev.ID, &ev.RunID, &ev.RecordID, &ev.Timestamp, &ev.CPU, &ev.Bank, &ev.ProcessorSignature,
		&ev.Status, &ev.Addr, &ev.Misc, &ev.Valid, &ev.UCRClass, &ev.MCAType, &ev.MCACode, &ev.Meaning,
		&ev.IncrementalDecoded, &ev.ModelSpecific, &ev.ReservedOther, &ev.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

// ListEvents retrieves events based on filters.
func (db *DB) ListEvents(filter EventFilter) ([]*Event, error) {
	query := `SELECT id, run_id, record_id, timestamp, cpu, bank, processor_signature,
	          status, addr, misc, valid, ucr_class, mca_type, mca_code, meaning,
	          incremental_decoded, model_specific, reserved_other, created_at
	          FROM events WHERE 1=1`
	args := []interface{}{}

	if filter.RunID != nil {
		query += " AND run_id = ?"
		args = append(args, *filter.RunID)
	}
	if filter.UCRClass != "" {
		query += " AND ucr_class = ?"
		args = append(args, filter.UCRClass)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*Event
	for rows.Next() {
		ev := &Event{}
		if err := rows.Scan(
			&ev.ID, &ev.RunID, &ev.RecordID, &ev.Timestamp, &ev.CPU, &ev.Bank, &ev.ProcessorSignature,
			&ev.Status, &ev.Addr, &ev.Misc, &ev.Valid, &ev.UCRClass, &ev.MCAType, &ev.MCACode, &ev.Meaning,
			&ev.IncrementalDecoded, &ev.ModelSpecific, &ev.ReservedOther, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// GetWarnings retrieves all warnings for an event.
func (db *DB) GetWarnings(eventID int64) ([]*Warning, error) {
	rows, err := db.conn.Query(
		`SELECT id, event_id, category, detail, created_at
		 FROM warnings WHERE event_id = ? ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get warnings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var warnings []*Warning
	for rows.Next() {
		w := &Warning{}
		if err := rows.Scan(&w.ID, &w.EventID, &w.Category, &w.Detail, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		warnings = append(warnings, w)
	}

	return warnings, nil
}
