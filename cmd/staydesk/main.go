package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"staydesk/internal/app/middleware"
	appoutbox "staydesk/internal/app/outbox"
	"staydesk/internal/app/snapshot"
	"staydesk/internal/infra/broker/kafka"
	rediscache "staydesk/internal/infra/cache/redis"
	"staydesk/internal/infra/config"
	mongodb "staydesk/internal/infra/db/mongo"
	ginserver "staydesk/internal/infra/http/gin"
	"staydesk/internal/infra/ics"
	"staydesk/internal/infra/inbox"
	"staydesk/internal/infra/inventory"
	"staydesk/internal/infra/jobs"
	"staydesk/internal/infra/obs"
	infraoutbox "staydesk/internal/infra/outbox"
	"staydesk/internal/infra/storage/disk"
	"staydesk/internal/infra/storage/memory"
	"staydesk/internal/infra/storage/s3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	catalogue, err := inventory.LoadFile(cfg.InventoryPath)
	if err != nil {
		return err
	}
	store := memory.NewStore(catalogue)

	var mongoClient *mongodb.Client
	if cfg.MongoURI != "" {
		mongoClient, err = mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Close(closeCtx)
		}()
	}

	// Committed events go to mongo when it is configured so they survive a restart,
	// otherwise to the in-process queue, and nowhere when nothing would publish them.
	var (
		sink      appoutbox.Outbox
		workStore infraoutbox.Store
		wake      <-chan struct{}
	)
	switch {
	case mongoClient != nil:
		mongoOutbox := infraoutbox.NewMongoStore(mongoClient.DB)
		sink, workStore = mongoOutbox, mongoOutbox
	case cfg.KafkaEnabled():
		memOutbox := memory.NewOutbox()
		sink, workStore, wake = memOutbox, memOutbox, memOutbox.Notify()
	default:
		logger.Info("event publishing disabled: no KAFKA_BROKERS")
	}

	var idempotency middleware.IdempotencyStore = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	var consumed kafka.Inbox = memory.NewInbox()
	if mongoClient != nil {
		idempotency = mongodb.NewIdempotencyStore(mongoClient.DB, cfg.IdempotencyTTL)
		consumed = inbox.NewStore(mongoClient.DB, cfg.KafkaConsumerGroup)
	}
	// Redis wins for dedup state when both are configured: its keys expire on their own.
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = rediscache.New(ctx, rediscache.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUser,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer redisClient.Close()
		idempotency = rediscache.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)
		consumed = rediscache.NewInbox(redisClient, cfg.KafkaConsumerGroup, 0)
	}

	factory := memory.Factory{Store: store, Outbox: sink}
	app := buildApplication(dependencies{
		Logger:      logger,
		Location:    cfg.Location,
		Factory:     factory,
		Outbox:      memory.StagedOutbox{Sink: sink},
		Idempotency: idempotency,
		Exporter:    ics.Exporter{},
	})

	snapshots, err := snapshotService(cfg, store, mongoClient, logger)
	if err != nil {
		return err
	}
	if snapshots != nil {
		if err := snapshots.Load(ctx); err != nil {
			return fmt.Errorf("snapshot load: %w", err)
		}
	}

	checks := map[string]obs.Check{}
	if mongoClient != nil {
		checks["mongo"] = mongoClient.Ping
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: checks}, app.handlers)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()
		worker := &infraoutbox.Worker{
			Store:       workStore,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
			Wake:        wake,
			Logger:      logger,
		}
		g.Go(func() error { return ignoreCancel(worker.Run(gctx)) })

		feed := &kafka.MaintenanceFeed{Bus: app.commands, Inbox: consumed, Location: cfg.Location, Logger: logger}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, nil, feed)
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		defer consumer.Close()
		g.Go(func() error {
			logger.Info("maintenance feed consuming", "topic", cfg.KafkaMaintenanceTopic)
			return ignoreCancel(consumer.Run(gctx, []string{cfg.KafkaMaintenanceTopic}))
		})
	}

	var flushJob *jobs.SnapshotJob
	if snapshots != nil {
		flushJob = &jobs.SnapshotJob{Flusher: snapshots, Spec: cfg.SnapshotFlushCron, Logger: logger}
		if err := flushJob.Start(); err != nil {
			return fmt.Errorf("snapshot job: %w", err)
		}
	}

	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if flushJob != nil {
			flushJob.Stop(shutdownCtx)
		}
		if snapshots != nil {
			if _, err := snapshots.Flush(shutdownCtx); err != nil {
				logger.Error("final snapshot flush failed", "error", err)
				return err
			}
		}
		return nil
	})

	err = g.Wait()
	logger.Info("staydesk stopped")
	return err
}

func snapshotService(cfg config.Config, store *memory.Store, mongoClient *mongodb.Client, logger *slog.Logger) (*snapshot.Service, error) {
	var backend snapshot.Store
	switch cfg.SnapshotBackend {
	case config.SnapshotMemory:
		logger.Warn("snapshots disabled: state is lost on restart")
		return nil, nil
	case config.SnapshotFile:
		fileStore, err := disk.NewSnapshotStore(cfg.SnapshotPath)
		if err != nil {
			return nil, err
		}
		logger.Info("snapshot backend", "kind", "file", "path", fileStore.Path())
		backend = fileStore
	case config.SnapshotMongo:
		backend = mongodb.NewSnapshotStore(mongoClient.DB, "")
		logger.Info("snapshot backend", "kind", "mongo", "db", cfg.MongoDB)
	case config.SnapshotS3:
		s3Store, err := s3.NewSnapshotStore(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3ObjectKey, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("snapshot backend", "kind", "s3", "bucket", cfg.S3Bucket, "key", cfg.S3ObjectKey)
		backend = s3Store
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
	return &snapshot.Service{
		Source: store,
		Store:  backend,
		Codec:  snapshot.Codec{Location: cfg.Location},
		Logger: logger,
	}, nil
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
