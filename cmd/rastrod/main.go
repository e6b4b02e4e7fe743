package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/petrijr/rastro/internal/config"
	"github.com/petrijr/rastro/internal/history"
	"github.com/petrijr/rastro/internal/httpapi"
	"github.com/petrijr/rastro/internal/ingest"
	"github.com/petrijr/rastro/internal/logging"
	"github.com/petrijr/rastro/internal/persistence"
	"github.com/petrijr/rastro/pkg/api"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.MustNew(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting rastrod",
		zap.String("work_dir", cfg.WorkDir),
		zap.Strings("sinks", cfg.Sinks),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	sinks, err := openSinks(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("failed to open history sinks", zap.Error(err))
	}

	rec := history.MustNewRecorder(persistence.NewMultiSink(sinks.all...), history.WithLogger(logger))

	pool := api.NewHub()
	dispatch := api.NewHub()
	svc, err := history.NewService(pool, dispatch, rec, logger)
	if err != nil {
		logger.Fatal("failed to build history service", zap.Error(err))
	}
	svc.Start()

	publisher := ingest.NewPublisher(ingest.Targets{Pool: pool, Dispatch: dispatch})

	ingestCtx, stopIngest := context.WithCancel(context.Background())
	ingestDone := make(chan struct{})
	if cfg.ZMQEndpoint != "" {
		sub := ingest.NewSubscriber(cfg.ZMQEndpoint, publisher, logger)
		go func() {
			defer close(ingestDone)
			if err := sub.Run(ingestCtx); err != nil {
				logger.Error("event subscriber failed", zap.Error(err))
			}
		}()
	} else {
		close(ingestDone)
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Dependencies{
			Reader:      sinks.reader,
			Memory:      sinks.memory,
			Publisher:   publisher,
			TokenSecret: []byte(cfg.TokenSecret),
			Logger:      logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}
	stopIngest()
	<-ingestDone
	if err := svc.Stop(shutdownCtx); err != nil {
		logger.Error("history service stop error", zap.Error(err))
	}
	for _, c := range sinks.closers {
		c(shutdownCtx)
	}
	logger.Info("rastrod stopped")
}

type openedSinks struct {
	all     []persistence.Sink
	memory  *persistence.MemorySink
	reader  persistence.Reader
	closers []func(context.Context)
}

// release stops every opened sink that holds resources, then runs the
// closers.
func (o *openedSinks) release(ctx context.Context) {
	for _, s := range o.all {
		if st, ok := s.(persistence.Stopper); ok {
			_ = st.Stop()
		}
	}
	for _, c := range o.closers {
		c(ctx)
	}
}

// openSinks opens every configured sink. The first readable sink, in
// configuration order, answers GET /history. On error, everything opened so
// far is released.
func openSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *openedSinks, err error) {
	out := &openedSinks{}
	defer func() {
		if err != nil {
			out.release(context.WithoutCancel(ctx))
		}
	}()

	add := func(s persistence.Sink) {
		out.all = append(out.all, s)
		if r, ok := s.(persistence.Reader); ok && out.reader == nil {
			out.reader = r
		}
	}
	closeWith := func(c func(context.Context)) {
		out.closers = append(out.closers, c)
	}

	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkMemory:
			out.memory = persistence.NewMemorySink(cfg.MemoryCapacity)
			add(out.memory)

		case config.SinkFile:
			fs, err := persistence.NewFileSink(cfg.WorkDir)
			if err != nil {
				return nil, err
			}
			logger.Info("outputting history", zap.String("path", fs.Path()))
			add(fs)

		case config.SinkSQLite:
			db, err := persistence.OpenSQLite(cfg.SQLitePath)
			if err != nil {
				return nil, err
			}
			closeWith(func(context.Context) { _ = db.Close() })
			s, err := persistence.NewSQLiteSink(db)
			if err != nil {
				return nil, fmt.Errorf("sqlite sink: %w", err)
			}
			add(s)

		case config.SinkPostgres:
			db, err := persistence.OpenPostgres(ctx, cfg.PostgresDSN)
			if err != nil {
				return nil, err
			}
			closeWith(func(context.Context) { _ = db.Close() })
			s, err := persistence.NewPostgresSink(db)
			if err != nil {
				return nil, fmt.Errorf("postgres sink: %w", err)
			}
			add(s)

		case config.SinkRedis:
			client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			closeWith(func(context.Context) { _ = client.Close() })
			if err := client.Ping(ctx).Err(); err != nil {
				return nil, fmt.Errorf("redis ping: %w", err)
			}
			add(persistence.NewRedisSink(client, cfg.RedisKey, cfg.MemoryCapacity))

		case config.SinkMongo:
			client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
			if err != nil {
				return nil, fmt.Errorf("mongo connect: %w", err)
			}
			closeWith(func(ctx context.Context) { _ = client.Disconnect(ctx) })
			s, err := persistence.NewMongoSink(ctx, client, "", "")
			if err != nil {
				return nil, fmt.Errorf("mongo sink: %w", err)
			}
			add(s)

		case config.SinkClickHouse:
			conn, err := persistence.OpenClickHouse(ctx, cfg.ClickHouseDSN, cfg.ClickHouseSecure)
			if err != nil {
				return nil, err
			}
			closeWith(func(context.Context) { _ = conn.Close() })
			s, err := persistence.NewClickHouseSink(ctx, conn, logger)
			if err != nil {
				return nil, fmt.Errorf("clickhouse sink: %w", err)
			}
			add(s)
		}
	}
	return out, nil
}
