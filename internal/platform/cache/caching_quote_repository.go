// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_pipeline/internal/feature/currentprice/domain/entity"
	"stock_pipeline/internal/feature/currentprice/usecase"
)

// CachingQuoteRepository decorates a QuoteRepository with Redis caching.
// Writes go through to the inner repository first, then refresh the cached
// entry per code and announce the update on the namespace's updates channel.
type CachingQuoteRepository struct {
	inner     usecase.QuoteRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.QuoteRepository = (*CachingQuoteRepository)(nil)

// NewCachingQuoteRepository decorates a QuoteRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "quotes".
func NewCachingQuoteRepository(rdb *redis.Client, ttl time.Duration, inner usecase.QuoteRepository, namespace string) *CachingQuoteRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "quotes"
	}
	return &CachingQuoteRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// UpsertBatch stores records in the inner repository and refreshes their cache entries.
func (c *CachingQuoteRepository) UpsertBatch(ctx context.Context, records []entity.QuoteRecord) error {
	if err := c.inner.UpsertBatch(ctx, records); err != nil {
		return err
	}
	if c.rdb == nil || len(records) == 0 {
		return nil
	}

	// Best effort: a cache failure never fails the write
	_, _ = c.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, r := range records {
			b, err := json.Marshal(r)
			if err != nil {
				continue
			}
			p.Set(ctx, c.cacheKey(r.Code), b, c.ttl)
			p.Publish(ctx, c.UpdatesChannel(), b)
		}
		return nil
	})
	return nil
}

// Find retrieves a quote, checking cache first then falling back to the inner repository.
func (c *CachingQuoteRepository) Find(ctx context.Context, code string) (entity.QuoteRecord, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, code)
	}

	key := c.cacheKey(code)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.QuoteRecord
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to the inner repository
	out, err := c.inner.Find(ctx, code)
	if err != nil {
		return entity.QuoteRecord{}, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// UpdatesChannel is the pub/sub channel that receives every refreshed quote.
func (c *CachingQuoteRepository) UpdatesChannel() string {
	return c.namespace + ":updates"
}

func (c *CachingQuoteRepository) cacheKey(code string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(code))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
