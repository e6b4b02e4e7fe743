package persistence

import (
	"context"
	"strings"
	"sync"

	"github.com/petrijr/rastro/pkg/api"
)

// DefaultMemoryCapacity is the number of records a MemorySink keeps unless
// told otherwise.
const DefaultMemoryCapacity = 1000

// MemorySink keeps the most recent records in a fixed-capacity ring buffer.
// Once full, each append evicts the oldest record. Eviction depends on
// insertion order only.
type MemorySink struct {
	mu    sync.RWMutex
	buf   []api.Record
	start int // index of the oldest record
	size  int
}

var (
	_ Sink   = (*MemorySink)(nil)
	_ Reader = (*MemorySink)(nil)
)

// NewMemorySink returns a MemorySink holding at most capacity records.
// A capacity below one selects DefaultMemoryCapacity.
func NewMemorySink(capacity int) *MemorySink {
	if capacity < 1 {
		capacity = DefaultMemoryCapacity
	}
	return &MemorySink{buf: make([]api.Record, capacity)}
}

func (s *MemorySink) Append(ctx context.Context, rec api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := len(s.buf)
	if s.size < c {
		s.buf[(s.start+s.size)%c] = rec
		s.size++
		return nil
	}
	// Full: overwrite the oldest slot and advance.
	s.buf[s.start] = rec
	s.start = (s.start + 1) % c
	return nil
}

// Entries returns a copy of the stored records, oldest first.
func (s *MemorySink) Entries(ctx context.Context) ([]api.Record, error) {
	return s.Snapshot(), nil
}

// Snapshot returns a copy of the stored records, oldest first.
func (s *MemorySink) Snapshot() []api.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *MemorySink) snapshotLocked() []api.Record {
	out := make([]api.Record, s.size)
	c := len(s.buf)
	for i := 0; i < s.size; i++ {
		out[i] = s.buf[(s.start+i)%c]
	}
	return out
}

// Len returns the number of stored records.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// MaxSize returns the capacity.
func (s *MemorySink) MaxSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}

// SetMaxSize changes the capacity. Shrinking evicts the oldest records.
func (s *MemorySink) SetMaxSize(n int) error {
	if n < 1 {
		return ErrInvalidCapacity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n == len(s.buf) {
		return nil
	}
	recs := s.snapshotLocked()
	if len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	s.buf = make([]api.Record, n)
	copy(s.buf, recs)
	s.start = 0
	s.size = len(recs)
	return nil
}

// String renders every stored record, oldest first, one per line.
func (s *MemorySink) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	c := len(s.buf)
	for i := 0; i < s.size; i++ {
		b.WriteString(s.buf[(s.start+i)%c].Line)
		b.WriteByte('\n')
	}
	return b.String()
}
