package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stock_pipeline/internal/app/di"
	"stock_pipeline/internal/app/router"
	"stock_pipeline/internal/config"
	"stock_pipeline/internal/feature/currentprice/adapters"
	quotehandler "stock_pipeline/internal/feature/currentprice/transport/handler"
	"stock_pipeline/internal/feature/currentprice/usecase"
	"stock_pipeline/internal/platform/http/handler"
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
	log = log.Named("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := di.OpenStores(ctx, cfg.DatabaseConfig(), cfg.RedisClientConfig(), log)
	if err != nil {
		log.Fatal("failed to open stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("failed to close stores", zap.Error(err))
		}
	}()

	// Health checks for the backends that are actually in use
	checks := map[string]handler.Check{}
	if stores.DB != nil {
		checks["db"] = func(ctx context.Context) error {
			sqlDB, err := stores.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if stores.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return stores.Redis.Ping(ctx).Err() }
	}

	snapshot := adapters.NewSnapshotFile(cfg.Consumer.SnapshotPath, log)
	quotesUC := usecase.NewQuoteUsecase(snapshot, di.NewQuoteRepository(stores, cfg.RedisClientConfig()))

	r := router.NewRouter(handler.NewHealthHandler(checks), quotehandler.NewQuoteHandler(quotesUC), log)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("server started", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server stopped")
}
