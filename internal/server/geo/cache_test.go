package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/registrar/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLocator struct {
	country string
	err     error
	calls   int
}

func (s *stubLocator) Country(ctx context.Context, ip string) (string, error) {
	s.calls++
	return s.country, s.err
}

func newCache(t *testing.T, next Locator) (*CachedLocator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCachedLocator(rdb, next, time.Hour, logging.NewNopLogger()), mr
}

func TestCachedLocator_FillsAndHits(t *testing.T) {
	next := &stubLocator{country: "Latvia"}
	c, mr := newCache(t, next)
	ctx := context.Background()

	got, err := c.Country(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.Equal(t, "Latvia", got)

	got, err = c.Country(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.Equal(t, "Latvia", got)
	assert.Equal(t, 1, next.calls)

	v, err := mr.Get(cacheKeyPrefix + "5.6.7.8")
	require.NoError(t, err)
	assert.Equal(t, "Latvia", v)
	assert.Equal(t, time.Hour, mr.TTL(cacheKeyPrefix+"5.6.7.8"))
}

func TestCachedLocator_Expiry(t *testing.T) {
	next := &stubLocator{country: "Latvia"}
	c, mr := newCache(t, next)
	ctx := context.Background()

	_, err := c.Country(ctx, "5.6.7.8")
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	_, err = c.Country(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedLocator_ErrorsAreNotCached(t *testing.T) {
	next := &stubLocator{err: errors.New("down")}
	c, mr := newCache(t, next)

	_, err := c.Country(context.Background(), "5.6.7.8")
	require.Error(t, err)
	assert.False(t, mr.Exists(cacheKeyPrefix+"5.6.7.8"))
}

func TestCachedLocator_RedisDown(t *testing.T) {
	next := &stubLocator{country: "Estonia"}
	c, mr := newCache(t, next)
	mr.Close()

	got, err := c.Country(context.Background(), "5.6.7.8")
	require.NoError(t, err)
	assert.Equal(t, "Estonia", got)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	_, err = NewRedisClient(context.Background(), "::not a url")
	require.Error(t, err)
}
