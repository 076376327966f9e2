package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// StockCache is a read-through Redis cache for stock record lookups.
// Concurrent misses for the same id collapse into one repository read.
// The cache is bypass-on-error and never authoritative: the engine reads
// locked rows straight from the store.
type StockCache struct {
	repo   RepositoryPort
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewStockCache constructs StockCache.
func NewStockCache(repo RepositoryPort, client *redis.Client, ttl time.Duration, logger *slog.Logger) *StockCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StockCache{repo: repo, client: client, ttl: ttl, logger: logger}
}

func stockKey(id int64) string {
	return fmt.Sprintf("inventory:stock_record:%d", id)
}

// GetStockRecord serves one record from Redis, falling back to the store.
func (c *StockCache) GetStockRecord(ctx context.Context, id int64) (StockRecord, error) {
	key := stockKey(id)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var rec StockRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			return rec, nil
		}
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("stock cache read", slog.Int64("id", id), slog.Any("error", err))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		rec, err := c.repo.GetStockRecord(ctx, id)
		if err != nil {
			return StockRecord{}, err
		}
		if data, err := json.Marshal(rec); err == nil {
			if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.logger.Warn("stock cache write", slog.Int64("id", id), slog.Any("error", err))
			}
		}
		return rec, nil
	})
	if err != nil {
		return StockRecord{}, err
	}
	return v.(StockRecord), nil
}

// Invalidate drops cached entries for the given ids after a committed batch.
func (c *StockCache) Invalidate(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, stockKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}
