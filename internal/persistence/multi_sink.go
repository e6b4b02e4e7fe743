package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/petrijr/rastro/pkg/api"
)

// MultiSink fans records out to several sinks, in order.
type MultiSink struct {
	sinks []Sink
}

var (
	_ Sink    = (*MultiSink)(nil)
	_ Stopper = (*MultiSink)(nil)
)

// NewMultiSink creates a Sink that forwards to each non-nil sink in sinks.
func NewMultiSink(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return NoopSink{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &MultiSink{sinks: filtered}
}

// Append appends to every sink even if an earlier one fails or panics. A
// closed sink is skipped; the result is ErrSinkClosed only if every sink is
// closed.
func (m *MultiSink) Append(ctx context.Context, rec api.Record) error {
	var errs []error
	closed := 0
	for _, s := range m.sinks {
		err := appendOne(ctx, s, rec)
		switch {
		case err == nil:
		case errors.Is(err, ErrSinkClosed):
			closed++
		default:
			errs = append(errs, err)
		}
	}
	if closed == len(m.sinks) {
		return ErrSinkClosed
	}
	return errors.Join(errs...)
}

func appendOne(ctx context.Context, s Sink, rec api.Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanicked, p)
		}
	}()
	return s.Append(ctx, rec)
}

// Stop stops every sink that implements Stopper.
func (m *MultiSink) Stop() error {
	var errs []error
	for _, s := range m.sinks {
		if st, ok := s.(Stopper); ok {
			if err := st.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Sinks returns the wrapped sinks.
func (m *MultiSink) Sinks() []Sink {
	return m.sinks
}
