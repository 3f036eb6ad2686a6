package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/idsrv/pkg/redis"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := redis.Connect(context.Background(), redis.Config{
		URL:           "redis://" + mr.Addr() + "/0",
		RetryAttempts: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	check := redis.Healthcheck(client)
	assert.NoError(t, check(context.Background()))

	mr.Close()
	assert.ErrorIs(t, check(context.Background()), redis.ErrHealthcheckFailed)
}

func TestConnect_Errors(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(context.Background(), redis.Config{URL: "://bad"})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = redis.Connect(context.Background(), redis.Config{
		URL:            "redis://" + addr,
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	assert.ErrorIs(t, err, redis.ErrRedisNotReady)
}
