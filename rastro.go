package rastro

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/petrijr/rastro/internal/history"
	"github.com/petrijr/rastro/internal/persistence"
	"github.com/petrijr/rastro/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Source           = api.Source
	Kind             = api.Kind
	FlowExpressionID = api.FlowExpressionID
	HasCorrelationID = api.HasCorrelationID
	WorkItem         = api.WorkItem
	Record           = api.Record
	EventSource      = api.EventSource
	ObserverFunc     = api.ObserverFunc
	Hub              = api.Hub

	Sink          = persistence.Sink
	Stopper       = persistence.Stopper
	Reader        = persistence.Reader
	RecorderStats = history.Stats
)

const (
	SourcePool     = api.SourcePool
	SourceDispatch = api.SourceDispatch

	DefaultMemoryCapacity = persistence.DefaultMemoryCapacity
)

var (
	NewHub              = api.NewHub
	NewFlowExpressionID = api.NewFlowExpressionID

	ErrSinkClosed = persistence.ErrSinkClosed
	ErrNoSink     = history.ErrNoSink
)

type options struct {
	logger   *zap.Logger
	capacity int
}

// Option configures a History.
type Option func(*options)

// WithLogger sets the logger used for absorbed recording failures.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCapacity sets the capacity of an in-memory history.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), capacity: DefaultMemoryCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// History records the events of an expression pool and a dispatch map into
// a sink. It is subscribed as soon as it is constructed.
type History struct {
	svc *history.Service
	rec *history.Recorder
}

// New subscribes a History writing to sink. Either source may be nil.
func New(pool, dispatch EventSource, sink Sink, opts ...Option) (*History, error) {
	o := buildOptions(opts)
	rec, err := history.NewRecorder(sink, history.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	svc, err := history.NewService(pool, dispatch, rec, o.logger)
	if err != nil {
		return nil, err
	}
	svc.Start()
	return &History{svc: svc, rec: rec}, nil
}

// Record appends an event as if it had been raised by source. No filtering
// is applied.
func (h *History) Record(ctx context.Context, source Source, kind Kind, args ...any) {
	h.rec.Record(ctx, source, kind, args...)
}

// Stats returns the recording counters.
func (h *History) Stats() RecorderStats {
	return h.rec.Stats()
}

// Stop unsubscribes and releases the sink. Later events are dropped.
func (h *History) Stop() error {
	return h.svc.Stop(context.Background())
}

// InMemoryHistory keeps the latest records in memory.
type InMemoryHistory struct {
	*History
	sink *persistence.MemorySink
}

// NewInMemoryHistory subscribes an in-memory History holding
// DefaultMemoryCapacity records unless WithCapacity says otherwise.
func NewInMemoryHistory(pool, dispatch EventSource, opts ...Option) (*InMemoryHistory, error) {
	o := buildOptions(opts)
	sink := persistence.NewMemorySink(o.capacity)
	h, err := New(pool, dispatch, sink, opts...)
	if err != nil {
		return nil, err
	}
	return &InMemoryHistory{History: h, sink: sink}, nil
}

// Entries returns the stored records, oldest first.
func (h *InMemoryHistory) Entries() []Record {
	return h.sink.Snapshot()
}

// MaxSize returns the number of records kept.
func (h *InMemoryHistory) MaxSize() int {
	return h.sink.MaxSize()
}

// SetMaxSize changes the number of records kept, evicting the oldest ones
// when shrinking.
func (h *InMemoryHistory) SetMaxSize(n int) error {
	return h.sink.SetMaxSize(n)
}

// String returns all entries, one line each.
func (h *InMemoryHistory) String() string {
	return h.sink.String()
}

// FileHistory appends records to <workDir>/history.log.
type FileHistory struct {
	*History
	sink *persistence.FileSink
}

// NewFileHistory opens workDir/history.log and subscribes a History writing
// to it.
func NewFileHistory(pool, dispatch EventSource, workDir string, opts ...Option) (*FileHistory, error) {
	o := buildOptions(opts)
	sink, err := persistence.NewFileSink(workDir)
	if err != nil {
		return nil, err
	}
	h, err := New(pool, dispatch, sink, opts...)
	if err != nil {
		_ = sink.Stop()
		return nil, err
	}
	o.logger.Info("outputting history", zap.String("path", sink.Path()))
	return &FileHistory{History: h, sink: sink}, nil
}

// OutputFile returns the handle of the history file.
func (h *FileHistory) OutputFile() *os.File {
	return h.sink.File()
}
