package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/petrijr/rastro/internal/persistence"
	"github.com/petrijr/rastro/pkg/api"
)

// TimestampLayout is the layout of the timestamp that starts every line.
const TimestampLayout = "2006-01-02 15:04:05.000000 -0700"

// ErrNoSink is returned by NewRecorder when no sink is given.
var ErrNoSink = errors.New("history recorder requires a sink")

// Recorder turns events into records and appends them to a sink.
//
// Recording never fails from the caller's point of view: sink errors and
// panics, including panics from argument methods, are logged and counted, and a closed sink makes recording a no-op.
type Recorder struct {
	sink   persistence.Sink
	logger *zap.Logger
	now    func() time.Time

	// mu makes capture time and append order agree when the two sources
	// deliver concurrently.
	mu sync.Mutex

	recorded atomic.Int64
	filtered atomic.Int64
	failed   atomic.Int64
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger used for absorbed failures.
func WithLogger(l *zap.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder creates a Recorder writing to sink.
func NewRecorder(sink persistence.Sink, opts ...Option) (*Recorder, error) {
	if sink == nil {
		return nil, ErrNoSink
	}
	r := &Recorder{
		sink:   sink,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MustNewRecorder is like NewRecorder but panics on error.
func MustNewRecorder(sink persistence.Sink, opts ...Option) *Recorder {
	r, err := NewRecorder(sink, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Sink returns the sink records are appended to.
func (r *Recorder) Sink() persistence.Sink {
	return r.sink
}

// Handle normalizes ev and records it unless it is filtered out.
func (r *Recorder) Handle(ctx context.Context, ev api.RawEvent) {
	e, ok := Normalize(ev)
	if !ok {
		r.filtered.Add(1)
		return
	}
	r.Record(ctx, e.Source, e.Kind, e.Args...)
}

// Record builds a record for an already normalized event and appends it.
func (r *Recorder) Record(ctx context.Context, source api.Source, kind api.Kind, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			r.failed.Add(1)
			r.logger.Error("history record panicked",
				zap.String("source", string(source)),
				zap.String("kind", string(kind)),
				zap.Any("panic", p),
			)
		}
	}()

	rec := r.build(source, kind, args)
	err := r.sink.Append(ctx, rec)
	switch {
	case err == nil:
		r.recorded.Add(1)
	case errors.Is(err, persistence.ErrSinkClosed):
		r.filtered.Add(1)
	default:
		r.failed.Add(1)
		r.logger.Warn("history append failed",
			zap.String("source", string(source)),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

func (r *Recorder) build(source api.Source, kind api.Kind, args []any) api.Record {
	t := r.now().Truncate(time.Microsecond)

	rec := api.Record{
		Timestamp: t,
		Source:    source,
		Kind:      kind,
		Message:   Message(args),
	}
	if fei, ok := CorrelationID(args); ok {
		rec.CorrelationID = &fei
	}
	if wi := WorkItem(args); wi != nil {
		rec.Participant = wi.Participant
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s -- %s %s", t.Format(TimestampLayout), source, kind)
	if len(args) > 0 && rec.CorrelationID != nil {
		b.WriteByte(' ')
		b.WriteString(rec.CorrelationID.String())
	}
	if rec.Message != "" {
		b.WriteByte(' ')
		b.WriteString(rec.Message)
	}
	rec.Line = b.String()
	return rec
}

// Stats is a snapshot of the Recorder counters.
type Stats struct {
	// Recorded counts records accepted by the sink.
	Recorded int64
	// Filtered counts events dropped by normalization or by a closed sink.
	Filtered int64
	// Failed counts sink errors and panics raised while recording.
	Failed int64
}

// Stats returns the current counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Recorded: r.recorded.Load(),
		Filtered: r.filtered.Load(),
		Failed:   r.failed.Load(),
	}
}
