package persistence

import (
	"context"
	"database/sql"
	"sync"

	"github.com/petrijr/rastro/pkg/api"
)

// PostgresSink stores history records in PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver, normally
// "github.com/jackc/pgx/v5/stdlib" (see OpenPostgres).
type PostgresSink struct {
	db *sql.DB
	mu sync.Mutex
}

var (
	_ Sink   = (*PostgresSink)(nil)
	_ Reader = (*PostgresSink)(nil)
)

// NewPostgresSink initializes the required schema in the given database and
// returns a new PostgresSink.
func NewPostgresSink(db *sql.DB) (*PostgresSink, error) {
	s := &PostgresSink{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS history_records (
			id BIGSERIAL PRIMARY KEY,
			at BIGINT NOT NULL,
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

// Append inserts rec. Appends are serialized so that BIGSERIAL ids follow
// call order.
func (s *PostgresSink) Append(ctx context.Context, rec api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_records (`+sqlRecordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		recordArgs(rec)...,
	)
	return err
}

func (s *PostgresSink) Entries(ctx context.Context) ([]api.Record, error) {
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
func (s *PostgresSink) EntriesFor(ctx context.Context, wfid string) ([]api.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqlRecordColumns+`
		FROM history_records
		WHERE wfid = $1
		ORDER BY id ASC`, wfid)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}
