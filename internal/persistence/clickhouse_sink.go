package persistence

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/petrijr/rastro/pkg/api"
)

// ClickHouseSink writes history records to ClickHouse asynchronously.
// Append is non-blocking: records are buffered and batch-inserted by a
// background goroutine. A per-sink sequence number keeps insertion order.
type ClickHouseSink struct {
	conn    driver.Conn
	batcher *batcher[sequencedRecord]

	mu  sync.Mutex
	seq uint64
}

type sequencedRecord struct {
	seq uint64
	rec api.Record
}

var (
	_ Sink    = (*ClickHouseSink)(nil)
	_ Stopper = (*ClickHouseSink)(nil)
	_ Reader  = (*ClickHouseSink)(nil)
)

// OpenClickHouse connects to ClickHouse. secure enables TLS when the DSN
// does not configure it.
func OpenClickHouse(ctx context.Context, dsn string, secure bool) (driver.Conn, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	if secure && opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return conn, nil
}

// NewClickHouseSink creates the history table if needed and starts the
// flush loop. The sequence resumes after the highest seq already stored.
func NewClickHouseSink(ctx context.Context, conn driver.Conn, logger *zap.Logger) (*ClickHouseSink, error) {
	if err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS history_records (
			seq UInt64,
			at DateTime64(6, 'UTC'),
			source LowCardinality(String),
			kind LowCardinality(String),
			engine_id String,
			wfid String,
			expression_name String,
			expid String,
			message String,
			participant String,
			line String
		) ENGINE = MergeTree
		ORDER BY seq
	`); err != nil {
		return nil, fmt.Errorf("create history table: %w", err)
	}

	var last uint64
	if err := conn.QueryRow(ctx, `SELECT max(seq) FROM history_records`).Scan(&last); err != nil {
		return nil, fmt.Errorf("read history sequence: %w", err)
	}

	s := &ClickHouseSink{conn: conn, seq: last}
	s.batcher = newBatcher(s.insert, logger, defaultBatchBuffer, defaultFlushInterval, defaultFlushBatch)
	return s, nil
}

// Append queues rec. It returns ErrBufferFull when the queue is full and
// ErrSinkClosed after Stop.
func (s *ClickHouseSink) Append(ctx context.Context, rec api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.batcher.add(sequencedRecord{seq: s.seq + 1, rec: rec}); err != nil {
		return err
	}
	s.seq++
	return nil
}

// Stop flushes queued records. It does not close the connection.
func (s *ClickHouseSink) Stop() error {
	s.batcher.stop()
	return nil
}

func (s *ClickHouseSink) insert(ctx context.Context, recs []sequencedRecord) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO history_records (
			seq, at, source, kind, engine_id, wfid, expression_name, expid,
			message, participant, line
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sr := range recs {
		rec := sr.rec
		var fei api.FlowExpressionID
		if rec.CorrelationID != nil {
			fei = *rec.CorrelationID
		}
		at := rec.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		if err := batch.Append(
			sr.seq,
			at.UTC(),
			string(rec.Source),
			string(rec.Kind),
			fei.EngineID,
			fei.WorkflowInstanceID,
			fei.ExpressionName,
			fei.ExpressionID,
			rec.Message,
			rec.Participant,
			rec.Line,
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	return batch.Send()
}

// Entries returns every stored record, oldest first. Records still queued
// are not included.
func (s *ClickHouseSink) Entries(ctx context.Context) ([]api.Record, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT at, source, kind, engine_id, wfid, expression_name, expid,
			message, participant, line
		FROM history_records
		ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.Record
	for rows.Next() {
		var (
			rec    api.Record
			source string
			kind   string
			fei    api.FlowExpressionID
		)
		if err := rows.Scan(&rec.Timestamp, &source, &kind,
			&fei.EngineID, &fei.WorkflowInstanceID, &fei.ExpressionName, &fei.ExpressionID,
			&rec.Message, &rec.Participant, &rec.Line); err != nil {
			return nil, err
		}
		rec.Source = api.Source(source)
		rec.Kind = api.Kind(kind)
		if !fei.IsZero() {
			rec.CorrelationID = &fei
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
