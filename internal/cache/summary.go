// Package cache keeps frequently polled license pool summaries in
// Redis. The cache is strictly optional: a nil client turns every
// method into a no-op and readers fall through to the database.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/incidia/backend/internal/models"
)

// NewClient connects to Redis and verifies the connection. It returns
// nil when the server is unreachable so callers degrade gracefully.
func NewClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

// SummaryCache caches one PoolSummary per company.
type SummaryCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewSummaryCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SummaryCache {
	return &SummaryCache{rdb: rdb, ttl: ttl, logger: logger.Named("summary_cache")}
}

func key(companyID uuid.UUID) string {
	return "license_summary:" + companyID.String()
}

// Get returns the cached summary, or nil on a miss or when caching is
// disabled.
func (c *SummaryCache) Get(ctx context.Context, companyID uuid.UUID) *models.PoolSummary {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, key(companyID)).Bytes()
	if err != nil {
		return nil
	}
	var summary models.PoolSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil
	}
	return &summary
}

// Set stores a summary. Failures are logged and otherwise ignored.
func (c *SummaryCache) Set(ctx context.Context, summary *models.PoolSummary) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(summary.CompanyID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache summary", zap.Error(err))
	}
}

// Invalidate drops the cached summary after any license mutation.
func (c *SummaryCache) Invalidate(ctx context.Context, companyID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(companyID)).Err(); err != nil {
		c.logger.Warn("failed to invalidate summary", zap.Error(err))
	}
}
