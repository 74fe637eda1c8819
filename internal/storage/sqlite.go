package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Command outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Command sources.
const (
	SourceVoice  = "voice"
	SourceManual = "manual"
)

// Run is one listening run, from Start to Stop.
type Run struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    string     `json:"status"`
}

// CommandRecord is one dispatched command and what came of it.
type CommandRecord struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	ReceivedAt time.Time `json:"received_at"`
	Source     string    `json:"source"`
	Text       string    `json:"text"`
	Action     string    `json:"action"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message"`
	Details    []string  `json:"details,omitempty"`
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = filepath.Join("data", "chanti.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			status TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}

	// run_id is not a foreign key: manual commands are accepted with an empty
	// run id.
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS commands (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL DEFAULT '',
			received_at TEXT NOT NULL,
			source TEXT NOT NULL,
			text TEXT NOT NULL,
			action TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '[]'
		);
	`); err != nil {
		return fmt.Errorf("create commands table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)"); err != nil {
		return fmt.Errorf("create runs index: %w", err)
	}
	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_commands_received_at ON commands(received_at)"); err != nil {
		return fmt.Errorf("create commands index: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) CreateRun(id string, startedAt time.Time) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("run id is required")
	}

	_, err := s.db.Exec(
		`INSERT INTO runs(id, started_at, status) VALUES(?, ?, 'active')`,
		id,
		startedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) EndRun(id string, endedAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE runs SET ended_at = ?, status = 'ended' WHERE id = ?`,
		endedAt.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("end run %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end run rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *SQLiteStore) GetRun(id string) (Run, error) {
	row := s.db.QueryRow(`SELECT id, started_at, ended_at, status FROM runs WHERE id = ?`, id)

	var run Run
	var startedAt string
	var endedAt sql.NullString
	if err := row.Scan(&run.ID, &startedAt, &endedAt, &run.Status); err != nil {
		return Run{}, fmt.Errorf("query run %s: %w", id, err)
	}

	parsedStart, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse run %s started_at: %w", id, err)
	}
	run.StartedAt = parsedStart

	if endedAt.Valid {
		parsedEnd, err := time.Parse(time.RFC3339Nano, endedAt.String)
		if err != nil {
			return Run{}, fmt.Errorf("parse run %s ended_at: %w", id, err)
		}
		run.EndedAt = &parsedEnd
	}

	return run, nil
}

func (s *SQLiteStore) AppendCommand(rec CommandRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("command id is required")
	}

	details, err := json.Marshal(nonNil(rec.Details))
	if err != nil {
		return fmt.Errorf("encode details for command %s: %w", rec.ID, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO commands(id, run_id, received_at, source, text, action, outcome, message, details)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.RunID,
		rec.ReceivedAt.UTC().Format(time.RFC3339Nano),
		rec.Source,
		strings.TrimSpace(rec.Text),
		rec.Action,
		rec.Outcome,
		rec.Message,
		string(details),
	)
	if err != nil {
		return fmt.Errorf("append command %s: %w", rec.ID, err)
	}
	return nil
}

// GetCommandsByDate returns the commands received on date (YYYY-MM-DD, UTC),
// newest first.
func (s *SQLiteStore) GetCommandsByDate(date string) ([]CommandRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, received_at, source, text, action, outcome, message, details
		 FROM commands
		 WHERE substr(received_at, 1, 10) = ?
		 ORDER BY received_at DESC`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("query commands by date %s: %w", date, err)
	}
	defer func() { _ = rows.Close() }()

	return scanCommands(rows)
}

func (s *SQLiteStore) GetDates() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT substr(received_at, 1, 10) AS date FROM commands ORDER BY date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query dates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dates rows: %w", err)
	}

	return dates, nil
}

func scanCommands(rows *sql.Rows) ([]CommandRecord, error) {
	records := make([]CommandRecord, 0, 16)
	for rows.Next() {
		var rec CommandRecord
		var receivedAt, details string
		if err := rows.Scan(&rec.ID, &rec.RunID, &receivedAt, &rec.Source, &rec.Text, &rec.Action, &rec.Outcome, &rec.Message, &details); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}

		parsed, err := time.Parse(time.RFC3339Nano, receivedAt)
		if err != nil {
			return nil, fmt.Errorf("parse received_at: %w", err)
		}
		rec.ReceivedAt = parsed

		if err := json.Unmarshal([]byte(details), &rec.Details); err != nil {
			return nil, fmt.Errorf("decode details for command %s: %w", rec.ID, err)
		}
		if len(rec.Details) == 0 {
			rec.Details = nil
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands rows: %w", err)
	}

	return records, nil
}

func nonNil(details []string) []string {
	if details == nil {
		return []string{}
	}
	return details
}
