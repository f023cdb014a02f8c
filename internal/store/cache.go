package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/golf-referee/internal/dashboard"
	"github.com/diewo77/golf-referee/internal/models"
)

const (
	cacheKeyPrefix  = "dashboard:communications"
	cacheVersionKey = cacheKeyPrefix + ":version"
)

// redisCommander is the subset of *redis.Client the cache uses.
type redisCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

var _ dashboard.Repository = (*CachedRepository)(nil)

// CachedRepository caches eligible communications per zone in Redis. Every
// other query goes straight to the wrapped repository. Cached lists are
// filtered again on read, so an entry expiring inside the TTL is never shown.
// Redis failures fall back to the wrapped repository.
type CachedRepository struct {
	dashboard.Repository
	redis redisCommander
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewCachedRepository decorates inner with a Redis cache.
func NewCachedRepository(inner dashboard.Repository, client redisCommander, ttl time.Duration, log logrus.FieldLogger) *CachedRepository {
	return &CachedRepository{Repository: inner, redis: client, ttl: ttl, log: log}
}

func (c *CachedRepository) key(ctx context.Context, zoneID *uint) (string, error) {
	version, err := c.redis.Get(ctx, cacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	zone := "national"
	if zoneID != nil {
		zone = fmt.Sprintf("zone:%d", *zoneID)
	}
	return fmt.Sprintf("%s:v%d:%s", cacheKeyPrefix, version, zone), nil
}

// ListEligibleCommunications serves from cache when possible.
func (c *CachedRepository) ListEligibleCommunications(ctx context.Context, zoneID *uint, now time.Time, limit int) ([]models.Communication, error) {
	key, err := c.key(ctx, zoneID)
	if err != nil {
		c.log.WithError(err).Warn("communications cache unavailable")
		return c.Repository.ListEligibleCommunications(ctx, zoneID, now, limit)
	}

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []models.Communication
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return dashboard.SelectCommunications(cached, zoneID, now, limit), nil
		}
		c.log.WithField("key", key).Warn("discarding malformed cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.WithError(err).Warn("communications cache read failed")
		return c.Repository.ListEligibleCommunications(ctx, zoneID, now, limit)
	}

	// Cache the full eligible set; limits are applied per read.
	all, err := c.Repository.ListEligibleCommunications(ctx, zoneID, now, 0)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(all); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.WithError(err).Warn("communications cache write failed")
		}
	}
	return dashboard.SelectCommunications(all, zoneID, now, limit), nil
}

// Invalidate drops every cached list by bumping the key version.
// Call it after any communication write.
func (c *CachedRepository) Invalidate(ctx context.Context) error {
	return c.redis.Incr(ctx, cacheVersionKey).Err()
}
