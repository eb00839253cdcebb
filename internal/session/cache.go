package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const identityKeyPrefix = "prime:identity:"

// RedisCache keeps identities in Redis for ttl. Redis being unavailable only
// costs a lookup; every error is logged and treated as a miss.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Logger
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, log: log}
}

func identityKey(userID uuid.UUID) string { return identityKeyPrefix + userID.String() }

func (c *RedisCache) Get(ctx context.Context, userID uuid.UUID) (Identity, bool) {
	raw, err := c.rdb.Get(ctx, identityKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).Debug("identity cache read failed")
		}
		return Identity{}, false
	}
	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		c.log.WithError(err).Warn("identity cache entry is corrupt")
		return Identity{}, false
	}
	return id, true
}

func (c *RedisCache) Set(ctx context.Context, id Identity) {
	raw, err := json.Marshal(id)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, identityKey(id.UserID), raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("identity cache write failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, identityKey(userID)).Err(); err != nil {
		c.log.WithError(err).Warn("identity cache invalidation failed")
	}
}
