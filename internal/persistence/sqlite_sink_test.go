package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/petrijr/rastro/pkg/api"
)

func newTestSQLiteSink(t *testing.T) *SQLiteSink {
	t.Helper()

	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	s, err := NewSQLiteSink(db)
	if err != nil {
		t.Fatalf("NewSQLiteSink failed: %v", err)
	}
	return s
}

func TestSQLiteSink_AppendAndEntries(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteSink(t)

	at := time.Date(2026, 10, 15, 9, 0, 0, 123456000, time.UTC)
	fei := api.FlowExpressionID{EngineID: "engine", WorkflowInstanceID: "wf-1", ExpressionName: "alpha", ExpressionID: "0.1"}

	in := []api.Record{
		{Timestamp: at, Source: api.SourcePool, Kind: api.KindLaunch, CorrelationID: &fei, Line: "first"},
		{Timestamp: at, Source: api.SourceDispatch, Kind: api.KindDispatch, Message: "alpha", Participant: "alpha", Line: "second"},
	}
	for _, r := range in {
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := s.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Line != "first" || got[1].Line != "second" {
		t.Fatalf("unexpected order: %q, %q", got[0].Line, got[1].Line)
	}
	if !got[0].Timestamp.Equal(at) {
		t.Fatalf("expected timestamp %v, got %v", at, got[0].Timestamp)
	}
	if got[0].CorrelationID == nil || *got[0].CorrelationID != fei {
		t.Fatalf("unexpected correlation id %v", got[0].CorrelationID)
	}
	if got[1].CorrelationID != nil {
		t.Fatalf("expected no correlation id, got %v", got[1].CorrelationID)
	}
	if got[1].Participant != "alpha" || got[1].Message != "alpha" || got[1].Source != api.SourceDispatch {
		t.Fatalf("unexpected record %+v", got[1])
	}
}

func TestSQLiteSink_EntriesFor(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteSink(t)

	a := api.FlowExpressionID{WorkflowInstanceID: "wf-a"}
	b := api.FlowExpressionID{WorkflowInstanceID: "wf-b"}

	_ = s.Append(ctx, api.Record{Kind: api.KindLaunch, CorrelationID: &a, Line: "a1"})
	_ = s.Append(ctx, api.Record{Kind: api.KindLaunch, CorrelationID: &b, Line: "b1"})
	_ = s.Append(ctx, api.Record{Kind: api.KindTerminate, CorrelationID: &a, Line: "a2"})

	got, err := s.EntriesFor(ctx, "wf-a")
	if err != nil {
		t.Fatalf("EntriesFor failed: %v", err)
	}
	if len(got) != 2 || got[0].Line != "a1" || got[1].Line != "a2" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestSQLiteSink_SchemaIsIdempotent(t *testing.T) {
	s := newTestSQLiteSink(t)
	if _, err := NewSQLiteSink(s.db); err != nil {
		t.Fatalf("second NewSQLiteSink failed: %v", err)
	}
}
