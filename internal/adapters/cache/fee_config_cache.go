package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

const feeConfigKeyPrefix = "settlement:fee_config:"

// DefaultFeeConfigTTL bounds how stale a cached fee schedule can be after an
// override changes without an explicit Invalidate.
const DefaultFeeConfigTTL = 5 * time.Minute

// FeeConfigCache is a read-through Redis cache in front of a FeeConfigRepository.
// Redis failures fall back to the repository; they never fail the lookup.
type FeeConfigCache struct {
	client redis.Cmdable
	next   ports.FeeConfigRepository
	logger *zap.Logger
	ttl    time.Duration
}

// NewFeeConfigCache wraps next with a Redis cache
func NewFeeConfigCache(client redis.Cmdable, next ports.FeeConfigRepository, ttl time.Duration, logger *zap.Logger) *FeeConfigCache {
	if ttl <= 0 {
		ttl = DefaultFeeConfigTTL
	}
	return &FeeConfigCache{client: client, next: next, logger: logger, ttl: ttl}
}

// GetEffective returns the cached fee schedule for producerID, loading it on a miss
func (c *FeeConfigCache) GetEffective(ctx context.Context, producerID string) (domain.FeeConfig, error) {
	key := feeConfigKeyPrefix + producerID

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cfg domain.FeeConfig
		if jsonErr := json.Unmarshal(raw, &cfg); jsonErr == nil {
			return cfg, nil
		}
		c.logger.Warn("Discarding undecodable cached fee config", zap.String("producer_id", producerID))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Fee config cache read failed",
			zap.String("producer_id", producerID),
			zap.Error(err),
		)
	}

	cfg, err := c.next.GetEffective(ctx, producerID)
	if err != nil {
		return domain.FeeConfig{}, err
	}

	if encoded, jsonErr := json.Marshal(cfg); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.logger.Warn("Fee config cache write failed",
				zap.String("producer_id", producerID),
				zap.Error(setErr),
			)
		}
	}
	return cfg, nil
}

// Invalidate drops the cached schedule of producerID
func (c *FeeConfigCache) Invalidate(ctx context.Context, producerID string) error {
	return c.client.Del(ctx, feeConfigKeyPrefix+producerID).Err()
}
