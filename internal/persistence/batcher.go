package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrBufferFull is returned by a batching sink whose queue is full.
var ErrBufferFull = errors.New("history sink buffer full")

const (
	defaultBatchBuffer   = 10_000
	defaultFlushInterval = 100 * time.Millisecond
	defaultFlushBatch    = 1000
	drainTimeout         = 2 * time.Second
	flushTimeout         = 5 * time.Second
)

// batcher queues items and hands them to flush in batches from a single
// goroutine, so batches arrive in append order.
type batcher[T any] struct {
	flush    func(ctx context.Context, items []T) error
	logger   *zap.Logger
	interval time.Duration
	maxBatch int

	mu      sync.Mutex
	closed  bool
	buffer  chan T
	done    chan struct{}
	flushed chan struct{}
}

func newBatcher[T any](flush func(ctx context.Context, items []T) error, logger *zap.Logger, bufferSize int, interval time.Duration, maxBatch int) *batcher[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &batcher[T]{
		flush:    flush,
		logger:   logger,
		interval: interval,
		maxBatch: maxBatch,
		buffer:   make(chan T, bufferSize),
		done:     make(chan struct{}),
		flushed:  make(chan struct{}),
	}
	go b.flushLoop()
	return b
}

// add queues item without blocking.
func (b *batcher[T]) add(item T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrSinkClosed
	}
	select {
	case b.buffer <- item:
		return nil
	default:
		return ErrBufferFull
	}
}

// stop drains queued records and waits for the last flush.
func (b *batcher[T]) stop() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.flushed
		return
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()

	<-b.flushed
}

func (b *batcher[T]) flushLoop() {
	defer close(b.flushed)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	batch := make([]T, 0, b.maxBatch)

	for {
		select {
		case item := <-b.buffer:
			batch = append(batch, item)
			if len(batch) >= b.maxBatch {
				b.send(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				b.send(batch)
				batch = batch[:0]
			}
		case <-b.done:
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
		drainLoop:
			for {
				select {
				case item := <-b.buffer:
					batch = append(batch, item)
				case <-drainCtx.Done():
					break drainLoop
				default:
					break drainLoop
				}
			}
			if len(batch) > 0 {
				b.send(batch)
			}
			return
		}
	}
}

func (b *batcher[T]) send(items []T) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := b.flush(ctx, items); err != nil {
		b.logger.Error("history batch flush failed",
			zap.Int("batch_size", len(items)),
			zap.Error(err),
		)
	}
}
