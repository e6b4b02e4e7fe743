package history

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/petrijr/rastro/internal/persistence"
	"github.com/petrijr/rastro/pkg/api"
)

// Service subscribes a Recorder to the expression pool and the dispatch map.
type Service struct {
	pool     api.EventSource
	dispatch api.EventSource
	rec      *Recorder
	logger   *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once

	mu     sync.Mutex
	unsubs []func()
}

// NewService creates a Service. Either source may be nil when the host has no
// such component.
func NewService(pool, dispatch api.EventSource, rec *Recorder, logger *zap.Logger) (*Service, error) {
	if rec == nil {
		return nil, errors.New("history service requires a recorder")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		pool:     pool,
		dispatch: dispatch,
		rec:      rec,
		logger:   logger,
	}, nil
}

// Recorder returns the recorder events are forwarded to.
func (s *Service) Recorder() *Recorder {
	return s.rec
}

// Start registers the observers. Calls after the first do nothing.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.pool != nil {
			s.unsubs = append(s.unsubs, s.pool.AddObserver(func(kind any, args ...any) {
				s.rec.Handle(context.Background(), api.NewPoolEvent(kind, args...))
			}))
		}
		if s.dispatch != nil {
			s.unsubs = append(s.unsubs, s.dispatch.AddObserver(func(kind any, args ...any) {
				s.rec.Handle(context.Background(), api.NewDispatchEvent(kind, args...))
			}))
		}
		s.logger.Info("history service started",
			zap.Bool("pool", s.pool != nil),
			zap.Bool("dispatch", s.dispatch != nil),
		)
	})
}

// Stop removes the observers and stops the sink if it holds resources.
// Events still in flight find a closed sink and are dropped.
func (s *Service) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		unsubs := s.unsubs
		s.unsubs = nil
		s.mu.Unlock()

		for _, u := range unsubs {
			u()
		}
		if st, ok := s.rec.Sink().(persistence.Stopper); ok {
			err = st.Stop()
		}
		stats := s.rec.Stats()
		s.logger.Info("history service stopped",
			zap.Int64("recorded", stats.Recorded),
			zap.Int64("filtered", stats.Filtered),
			zap.Int64("failed", stats.Failed),
			zap.Error(err),
		)
	})
	return err
}
