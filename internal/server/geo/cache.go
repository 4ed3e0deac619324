package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/registrar/internal/logging"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "geo:country:"

// CachedLocator answers from redis when it can and fills redis from next
// when it cannot. A broken cache never fails a lookup.
type CachedLocator struct {
	rdb    redis.Cmdable
	next   Locator
	ttl    time.Duration
	logger logging.Logger
}

func NewCachedLocator(rdb redis.Cmdable, next Locator, ttl time.Duration, logger logging.Logger) *CachedLocator {
	return &CachedLocator{rdb: rdb, next: next, ttl: ttl, logger: logger}
}

// NewRedisClient parses url, connects and pings before returning.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func (c *CachedLocator) Country(ctx context.Context, ip string) (string, error) {
	key := cacheKeyPrefix + ip

	country, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return country, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn(ctx, "geo cache read failed", "error", err)
	}

	country, err = c.next.Country(ctx, ip)
	if err != nil {
		return "", err
	}

	if err := c.rdb.Set(ctx, key, country, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "geo cache write failed", "error", err)
	}
	return country, nil
}
