package ingest

import (
	"context"
	"syscall"
	"time"

	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"
)

// recvTimeout bounds each receive so Run notices cancellation.
const recvTimeout = 250 * time.Millisecond

// Subscriber receives events from a ZeroMQ PUB socket.
//
// Each message has two frames: the source tag ("expool" or "pmap") as the
// topic, and the msgpack-encoded Event. A frame whose topic disagrees with
// the event's own source is dropped.
type Subscriber struct {
	endpoint  string
	publisher *Publisher
	logger    *zap.Logger
}

// NewSubscriber returns a Subscriber connecting to endpoint.
func NewSubscriber(endpoint string, publisher *Publisher, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		endpoint:  endpoint,
		publisher: publisher,
		logger:    logger,
	}
}

// Run connects, subscribes to both sources and replays events until ctx is
// done.
func (s *Subscriber) Run(ctx context.Context) error {
	sub, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		return err
	}
	defer sub.Close()

	if err := sub.SetLinger(0); err != nil {
		return err
	}
	if err := sub.SetRcvtimeo(recvTimeout); err != nil {
		return err
	}
	if err := sub.Connect(s.endpoint); err != nil {
		return err
	}
	for _, topic := range []string{"expool", "pmap"} {
		if err := sub.SetSubscribe(topic); err != nil {
			return err
		}
	}
	s.logger.Info("event subscriber connected", zap.String("endpoint", s.endpoint))

	for {
		if ctx.Err() != nil {
			return nil
		}

		parts, err := sub.RecvMessageBytes(0)
		if err != nil {
			if zmq.AsErrno(err) == zmq.Errno(syscall.EAGAIN) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("event subscriber receive failed", zap.Error(err))
			time.Sleep(recvTimeout)
			continue
		}
		s.handle(parts)
	}
}

func (s *Subscriber) handle(parts [][]byte) {
	if len(parts) < 2 {
		return
	}
	topic := string(parts[0])

	e, err := DecodeEvent(parts[1])
	if err != nil {
		s.logger.Warn("event dropped", zap.String("topic", topic), zap.Error(err))
		return
	}
	if e.Source != topic {
		s.logger.Warn("event dropped",
			zap.String("topic", topic),
			zap.String("source", e.Source),
		)
		return
	}
	if err := s.publisher.Publish(e); err != nil {
		s.logger.Warn("event dropped", zap.String("topic", topic), zap.Error(err))
	}
}
