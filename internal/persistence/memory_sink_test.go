package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/petrijr/rastro/pkg/api"
)

func rec(n int) api.Record {
	return api.Record{Source: api.SourcePool, Kind: api.KindLaunch, Line: fmt.Sprintf("line-%d", n)}
}

func lines(recs []api.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Line
	}
	return out
}

func TestMemorySink_DefaultCapacity(t *testing.T) {
	s := NewMemorySink(0)
	if s.MaxSize() != DefaultMemoryCapacity {
		t.Fatalf("expected capacity %d, got %d", DefaultMemoryCapacity, s.MaxSize())
	}
}

func TestMemorySink_EvictsOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink(3)

	for i := 1; i <= 7; i++ {
		if err := s.Append(ctx, rec(i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := s.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	want := []string{"line-5", "line-6", "line-7"}
	if fmt.Sprint(lines(got)) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, lines(got))
	}
}

func TestMemorySink_String(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink(5)

	if s.String() != "" {
		t.Fatalf("expected empty text, got %q", s.String())
	}
	_ = s.Append(ctx, rec(1))
	_ = s.Append(ctx, rec(2))

	if got := s.String(); got != "line-1\nline-2\n" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestMemorySink_SetMaxSize(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink(5)
	for i := 1; i <= 5; i++ {
		_ = s.Append(ctx, rec(i))
	}

	if err := s.SetMaxSize(2); err != nil {
		t.Fatalf("SetMaxSize failed: %v", err)
	}
	if got := lines(s.Snapshot()); fmt.Sprint(got) != "[line-4 line-5]" {
		t.Fatalf("unexpected entries after shrink: %v", got)
	}

	if err := s.SetMaxSize(4); err != nil {
		t.Fatalf("SetMaxSize failed: %v", err)
	}
	_ = s.Append(ctx, rec(6))
	_ = s.Append(ctx, rec(7))
	_ = s.Append(ctx, rec(8))
	if got := lines(s.Snapshot()); fmt.Sprint(got) != "[line-5 line-6 line-7 line-8]" {
		t.Fatalf("unexpected entries after grow: %v", got)
	}

	if err := s.SetMaxSize(0); err != ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
}

func TestMemorySink_SnapshotIsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink(2)
	_ = s.Append(ctx, rec(1))

	snap := s.Snapshot()
	snap[0].Line = "changed"

	if s.Snapshot()[0].Line != "line-1" {
		t.Fatalf("snapshot modification leaked into sink")
	}
}

func TestMemorySink_ConcurrentAppendAndRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink(50)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				_ = s.Append(ctx, rec(i))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if n := len(s.Snapshot()); n > 50 {
				t.Errorf("observed %d entries, above capacity", n)
				return
			}
		}
	}()
	wg.Wait()

	if s.Len() != 50 {
		t.Fatalf("expected 50 entries, got %d", s.Len())
	}
}
