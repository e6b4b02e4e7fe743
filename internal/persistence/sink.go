package persistence

import (
	"context"
	"errors"

	"github.com/petrijr/rastro/pkg/api"
)

var (
	// ErrSinkClosed is returned by Append after a sink has been stopped.
	// Callers recording history treat it as a no-op.
	ErrSinkClosed = errors.New("history sink closed")

	// ErrSinkPanicked wraps a panic raised by one of the sinks behind a
	// MultiSink.
	ErrSinkPanicked = errors.New("history sink panicked")

	// ErrInvalidCapacity is returned when a bounded sink is given a
	// capacity below one.
	ErrInvalidCapacity = errors.New("capacity must be at least 1")
)

// Sink stores history records in the order they are appended.
// Implementations must be safe for concurrent use and must not reorder
// records.
type Sink interface {
	Append(ctx context.Context, rec api.Record) error
}

// Stopper is implemented by sinks that hold resources which must be released
// on shutdown. After Stop, Append returns ErrSinkClosed.
type Stopper interface {
	Stop() error
}

// Reader is implemented by sinks that can list what they hold, oldest first.
type Reader interface {
	Entries(ctx context.Context) ([]api.Record, error)
}

// NoopSink discards all records.
type NoopSink struct{}

func (NoopSink) Append(ctx context.Context, rec api.Record) error { return nil }
