package persistence

import (
	"testing"
	"time"

	"github.com/petrijr/rastro/pkg/api"
)

func TestDecodeRecord_KeepsOptionalFieldsAbsent(t *testing.T) {
	in := api.Record{Timestamp: time.Date(2026, 10, 15, 9, 0, 0, 1000, time.UTC), Kind: api.KindStop, Line: "x"}

	data, err := EncodeRecord(in)
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}
	out, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}

	if out.CorrelationID != nil || out.Message != "" || out.Participant != "" {
		t.Fatalf("expected optional fields to stay empty, got %+v", out)
	}
	if !out.Timestamp.Equal(in.Timestamp) || out.Kind != in.Kind || out.Line != in.Line {
		t.Fatalf("unexpected record %+v", out)
	}
}

func TestDecodeRecord_Garbage(t *testing.T) {
	if _, err := DecodeRecord([]byte{0xc1}); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}
