package credential

import (
	"casehub-auth-svc/src/internal/config"
	"casehub-auth-svc/src/internal/models"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// StatsCache keeps the account-stats aggregate out of Mongo's hot path.
type StatsCache interface {
	Get(ctx context.Context) (*models.AccountStats, error)
	Save(ctx context.Context, stats *models.AccountStats) error
}

type statsCache struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewStatsCache(client *redis.Client, cfg *config.Configuration) StatsCache {
	return &statsCache{
		client: client,
		cfg:    &cfg.Cache,
	}
}

func (c *statsCache) Get(ctx context.Context) (*models.AccountStats, error) {
	data, err := c.client.Get(ctx, c.cfg.StatsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).Error("Failed to get account stats from cache")
		return nil, models.ErrCacheUnavailable
	}

	var stats models.AccountStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal account stats from cache")
		return nil, models.ErrCacheEncoding
	}
	return &stats, nil
}

func (c *statsCache) Save(ctx context.Context, stats *models.AccountStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal account stats for cache")
		return models.ErrCacheEncoding
	}

	expiration := time.Duration(c.cfg.StatsExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, c.cfg.StatsKey, data, expiration).Err(); err != nil {
		logrus.WithError(err).Error("Failed to cache account stats")
		return models.ErrCacheUnavailable
	}
	return nil
}
