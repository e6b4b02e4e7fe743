package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/rastro/pkg/api"
)

// RedisSink keeps the most recent records in a capped Redis list.
//
//	<key>  => LIST of msgpack-encoded records, oldest at the head
//
// Each append pushes to the tail and trims the head inside one MULTI/EXEC,
// so readers never see the list above capacity.
type RedisSink struct {
	client   *redis.Client
	key      string
	capacity int64
}

var (
	_ Sink   = (*RedisSink)(nil)
	_ Reader = (*RedisSink)(nil)
)

// NewRedisSink creates a RedisSink. key defaults to "rastro:history" and a
// capacity below one selects DefaultMemoryCapacity.
func NewRedisSink(client *redis.Client, key string, capacity int) *RedisSink {
	if key == "" {
		key = "rastro:history"
	}
	if capacity < 1 {
		capacity = DefaultMemoryCapacity
	}
	return &RedisSink{
		client:   client,
		key:      key,
		capacity: int64(capacity),
	}
}

func (s *RedisSink) Append(ctx context.Context, rec api.Record) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.key, data)
		pipe.LTrim(ctx, s.key, -s.capacity, -1)
		return nil
	})
	return err
}

func (s *RedisSink) Entries(ctx context.Context) ([]api.Record, error) {
	vals, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]api.Record, 0, len(vals))
	for _, v := range vals {
		rec, err := DecodeRecord([]byte(v))
		if err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Capacity returns the maximum list length.
func (s *RedisSink) Capacity() int {
	return int(s.capacity)
}
