package output

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id                TEXT NOT NULL REFERENCES runs(run_id),
	source_path           TEXT NOT NULL DEFAULT '',
	title                 TEXT NOT NULL DEFAULT '',
	details               TEXT NOT NULL DEFAULT '',
	file                  TEXT NOT NULL DEFAULT '',
	status                TEXT NOT NULL DEFAULT '',
	stage                 TEXT NOT NULL DEFAULT '',
	source                TEXT NOT NULL DEFAULT '',
	create_at             TEXT NOT NULL DEFAULT '',
	sent_by               TEXT NOT NULL DEFAULT '',
	sent_to               TEXT NOT NULL DEFAULT '',
	custom_response       TEXT NOT NULL DEFAULT '',
	year                  INTEGER,
	month                 INTEGER,
	day                   INTEGER,
	classification_title  TEXT NOT NULL DEFAULT '',
	classification_source TEXT NOT NULL DEFAULT '',
	detail_fields         TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS records_run ON records(run_id);
`

const insertRecord = `INSERT INTO records (
	run_id, source_path, title, details, file, status, stage, source,
	create_at, sent_by, sent_to, custom_response, year, month, day,
	classification_title, classification_source, detail_fields
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteSink stores rows in a SQLite database, one run per sink. Rows are
// written inside a transaction that is committed on every Flush.
type SQLiteSink struct {
	db    *sql.DB
	tx    *sql.Tx
	stmt  *sql.Stmt
	runID string
}

// NewSQLiteSink opens (or creates) the database at path and registers a
// new run.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLiteSink{db: db, runID: ulid.Make().String()}
	if _, err := db.Exec(`INSERT INTO runs (run_id, started_at) VALUES (?, ?)`,
		s.runID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		db.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}
	if err := s.begin(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// RunID identifies the rows written by this sink.
func (s *SQLiteSink) RunID() string { return s.runID }

func (s *SQLiteSink) Render(row model.Row) error {
	details, err := json.Marshal(row.Extracted)
	if err != nil {
		return err
	}
	if row.Extracted == nil {
		details = []byte("{}")
	}

	_, err = s.stmt.Exec(
		s.runID, row.Path,
		row.Title, row.Details, row.File, row.Status, row.Stage, row.Source,
		row.CreateAt, row.SentBy, row.SentTo, row.CustomResponse,
		nullInt(row.Year), nullInt(row.Month), nullInt(row.Day),
		row.TitleClass, row.SourceClass, string(details),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Flush commits the pending rows and opens a new transaction.
func (s *SQLiteSink) Flush() error {
	if err := s.commit(); err != nil {
		return err
	}
	return s.begin()
}

func (s *SQLiteSink) Close() error {
	err := s.commit()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *SQLiteSink) begin() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(insertRecord)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	s.tx, s.stmt = tx, stmt
	return nil
}

func (s *SQLiteSink) commit() error {
	if s.tx == nil {
		return nil
	}
	s.stmt.Close()
	err := s.tx.Commit()
	s.tx, s.stmt = nil, nil
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
