package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"stock_pipeline/internal/app/di"
	"stock_pipeline/internal/config"
	"stock_pipeline/internal/feature/currentprice/adapters"
	"stock_pipeline/internal/feature/currentprice/transport/event"
	"stock_pipeline/internal/feature/currentprice/usecase"
	"stock_pipeline/internal/platform/eventbus"
	"stock_pipeline/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log = log.Named("consumer")

	if err := cfg.RequireConsumer(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional latest-quote store
	stores, err := di.OpenStores(ctx, cfg.DatabaseConfig(), cfg.RedisClientConfig(), log)
	if err != nil {
		log.Fatal("failed to open stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("failed to close stores", zap.Error(err))
		}
	}()

	// Repository
	market := di.NewMarket(cfg.KISClientConfig(), log)
	snapshot := adapters.NewSnapshotFile(cfg.Consumer.SnapshotPath, log)
	quotes := di.NewQuoteRepository(stores, cfg.RedisClientConfig())

	// Usecase
	enricher := usecase.NewEnrichUsecase(market, log)
	consumer := usecase.NewConsumeUsecase(enricher, snapshot, quotes, cfg.Consumer.BatchLimit, log)

	// Handler
	h := event.NewKafkaHandler(consumer, log)

	reader := eventbus.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	sub := eventbus.NewSubscriber(reader, log)
	defer func() {
		if err := sub.Close(); err != nil {
			log.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	log.Info("consumer started",
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group_id", cfg.Kafka.GroupID),
		zap.String("snapshot_path", snapshot.Path()),
	)
	if err := sub.Run(ctx, h.Handle); err != nil {
		log.Error("subscriber exited", zap.Error(err))
	}
	log.Info("consumer stopped")
}
