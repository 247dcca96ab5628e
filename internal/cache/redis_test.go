package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if f.failSet != nil {
		return redis.NewStatusResult("", f.failSet)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error { return nil }

func TestRedis_SetAndGet(t *testing.T) {
	fake := newFakeRedis()
	c := &Redis{client: fake}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "analytics:completeness:s1", []byte(`{"overall_score":80}`), time.Hour))
	assert.Equal(t, time.Hour, fake.ttls["analytics:completeness:s1"])

	data, ok, err := c.Get(ctx, "analytics:completeness:s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"overall_score":80}`, string(data))
}

func TestRedis_Miss(t *testing.T) {
	c := &Redis{client: newFakeRedis()}

	data, ok, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestRedis_Errors(t *testing.T) {
	fake := newFakeRedis()
	fake.failGet = errors.New("connection refused")
	fake.failSet = errors.New("readonly replica")
	c := &Redis{client: fake}
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "redis get k")

	err = c.Set(ctx, "k", []byte("v"), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set k")
}

func TestNewRedis_InvalidURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "analytics:anomalies:sp-42", Key("anomalies", "sp-42"))
}
