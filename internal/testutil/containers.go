// Package testutil starts throwaway backing services for integration tests.
// Each container is started at most once per test binary; tests are skipped
// when no Docker provider is available.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startTimeout is generous for CI environments pulling images.
const startTimeout = 3 * time.Minute

type shared struct {
	once     sync.Once
	endpoint string
	err      error
}

var (
	postgres shared
	redis    shared
	mongo    shared
)

// start runs the container once. Containers started here live until the test binary
// exits; Ryuk reaps them.
func (s *shared) start(t *testing.T, image string, opts ...testcontainers.ContainerCustomizer) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()

		c, err := testcontainers.Run(ctx, image, opts...)
		if err != nil {
			s.err = err
			return
		}

		endpoint, err := c.Endpoint(ctx, "")
		if err != nil {
			_ = c.Terminate(context.Background()) // best-effort cleanup
			s.err = err
			return
		}
		s.endpoint = endpoint
	})

	if s.err != nil {
		t.Fatalf("start %s container: %v", image, s.err)
	}
	return s.endpoint
}

// PostgresDSN returns the DSN of a PostgreSQL 16 container.
func PostgresDSN(t *testing.T) string {
	t.Helper()

	endpoint := postgres.start(t, "postgres:16",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("ready to accept connections"),
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://rastro:rastro@%s:%s/rastro_test?sslmode=disable", host, port.Port())
				}).WithQuery("SELECT 1"),
			).WithDeadline(2*time.Minute),
		),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "rastro",
			"POSTGRES_PASSWORD": "rastro",
			"POSTGRES_DB":       "rastro_test",
		}),
	)
	return fmt.Sprintf("postgres://rastro:rastro@%s/rastro_test?sslmode=disable", endpoint)
}

// RedisAddress returns the host:port of a Redis container.
func RedisAddress(t *testing.T) string {
	t.Helper()

	return redis.start(t, "redis:latest",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
}

// MongoURI returns the connection URI of a MongoDB 7 container.
func MongoURI(t *testing.T) string {
	t.Helper()

	endpoint := mongo.start(t, "mongo:7",
		testcontainers.WithExposedPorts("27017/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("27017/tcp"),
			wait.ForLog("mongod startup complete"),
		),
	)
	return fmt.Sprintf("mongodb://%s", endpoint)
}
