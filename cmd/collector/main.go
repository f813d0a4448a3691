package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"stock_pipeline/internal/app/di"
	"stock_pipeline/internal/config"
	"stock_pipeline/internal/feature/volumerank/usecase"
	"stock_pipeline/internal/platform/eventbus"
	"stock_pipeline/internal/platform/logger"
	"stock_pipeline/internal/platform/scheduler"
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
	log = log.Named("collector")

	if err := cfg.RequireCollector(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Kafka.EnsureTopic {
		tc := eventbus.NewTopicCreator(log, &eventbus.RealKafkaDialer{Dialer: kafka.DefaultDialer})
		if err := tc.Ensure(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
			log.Warn("could not ensure topic", zap.String("topic", cfg.Kafka.Topic), zap.Error(err))
		}
	}

	market := di.NewMarket(cfg.KISClientConfig(), log)

	publisher := eventbus.NewPublisher(eventbus.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("failed to close kafka writer", zap.Error(err))
		}
	}()

	uc := usecase.NewCollectUsecase(market, publisher, log)

	sched, err := scheduler.New(cfg.SchedulerConfig(), log)
	if err != nil {
		log.Fatal("invalid schedule", zap.Error(err))
	}

	if err := sched.Run(ctx, uc.Collect); err != nil {
		log.Error("scheduler exited", zap.Error(err))
	}
	log.Info("collector stopped")
}
