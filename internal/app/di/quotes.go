package di

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stock_pipeline/internal/feature/currentprice/adapters"
	"stock_pipeline/internal/feature/currentprice/usecase"
	"stock_pipeline/internal/platform/cache"
	"stock_pipeline/internal/platform/db"
	infraredis "stock_pipeline/internal/platform/redis"
)

// Stores holds the optional latest-quote backends.
type Stores struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// OpenStores connects to the configured database and Redis.
// A backend that is not configured, or whose Redis ping fails, is left nil.
func OpenStores(ctx context.Context, dbCfg db.Config, redisCfg infraredis.Config, logger *zap.Logger) (*Stores, error) {
	s := &Stores{}

	if dbCfg.Enabled() {
		gdb, err := db.OpenDB(dbCfg, logger.Named("db"), &adapters.QuoteModel{})
		if err != nil {
			return nil, err
		}
		s.DB = gdb
	} else {
		logger.Info("database not configured, latest quotes are not stored")
	}

	if redisCfg.Enabled() {
		rdb, err := infraredis.NewRedisClient(ctx, redisCfg, logger.Named("redis"))
		if err != nil {
			logger.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			s.Redis = rdb
		}
	}
	return s, nil
}

// Close releases the open backends.
func (s *Stores) Close() error {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		sqlDB, err := s.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// NewQuoteRepository creates the latest-quote repository.
// It returns nil when no database is available; Redis, if present, wraps the database as a cache.
func NewQuoteRepository(s *Stores, redisCfg infraredis.Config) usecase.QuoteRepository {
	if s == nil || s.DB == nil {
		return nil
	}
	repo := adapters.NewQuoteRepository(s.DB)
	if s.Redis == nil {
		return repo
	}
	return cache.NewCachingQuoteRepository(s.Redis, redisCfg.TTL, repo, "quotes")
}
