package persistence

import (
	"context"
	"database/sql"
	"sync"

	"github.com/petrijr/rastro/pkg/api"
)

// SQLiteSink stores history records in SQLite.
//
// It expects an *sql.DB that uses a SQLite driver, normally
// "modernc.org/sqlite" (see OpenSQLite).
type SQLiteSink struct {
	db *sql.DB

	// SQLite allows one writer; serializing here keeps insertion order equal
	// to call order.
	mu sync.Mutex
}

var (
	_ Sink   = (*SQLiteSink)(nil)
	_ Reader = (*SQLiteSink)(nil)
)

// NewSQLiteSink initializes the required schema in the given database and
// returns a new SQLiteSink.
func NewSQLiteSink(db *sql.DB) (*SQLiteSink, error) {
	s := &SQLiteSink{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS history_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at INTEGER NOT NULL,
			source TEXT NOT NULL,
			kind TEXT NOT NULL,
			engine_id TEXT NOT NULL DEFAULT '',
			wfid TEXT NOT NULL DEFAULT '',
			expression_name TEXT NOT NULL DEFAULT '',
			expid TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			participant TEXT NOT NULL DEFAULT '',
			line TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_records_wfid ON history_records(wfid, id);
	`)
	return err
}

func (s *SQLiteSink) Append(ctx context.Context, rec api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_records (`+sqlRecordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recordArgs(rec)...,
	)
	return err
}

func (s *SQLiteSink) Entries(ctx context.Context) ([]api.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqlRecordColumns+`
		FROM history_records
		ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// EntriesFor returns the records of one process instance, oldest first.
func (s *SQLiteSink) EntriesFor(ctx context.Context, wfid string) ([]api.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqlRecordColumns+`
		FROM history_records
		WHERE wfid = ?
		ORDER BY id ASC`, wfid)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}
