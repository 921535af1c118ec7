package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemoryIdempotencyStore(time.Minute)
	store.now = func() time.Time { return now }

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	seen, _ = store.Contains(ctx, "evt-1")
	assert.True(t, seen)
	assert.Equal(t, 1, store.Len())

	now = now.Add(2 * time.Minute)
	seen, _ = store.Contains(ctx, "evt-1")
	assert.False(t, seen)
	assert.Equal(t, 0, store.Len())
}

type fakeRedisKV struct {
	keys    map[string]time.Duration
	failGet bool
}

func (f *fakeRedisKV) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	if f.failGet {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedisKV) Set(_ context.Context, key string, _ any, ttl time.Duration) *redis.StatusCmd {
	f.keys[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	kv := &fakeRedisKV{keys: map[string]time.Duration{}}
	store := NewRedisIdempotencyStore(kv, "idem:notifier", time.Hour)

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	assert.Equal(t, time.Hour, kv.keys["idem:notifier:evt-1"])

	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	kv.failGet = true
	_, err = store.Contains(ctx, "evt-1")
	assert.Error(t, err)
}

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdempotencyStore(time.Hour)

	calls := 0
	fail := true
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		if fail {
			return errors.New("boom")
		}
		return nil
	}, testLogger())

	event := &Event{EventID: "evt-1", EventType: "emergency.alert_sent"}

	require.Error(t, h(ctx, event))
	assert.Equal(t, 0, store.Len())

	fail = false
	require.NoError(t, h(ctx, event))
	require.NoError(t, h(ctx, event))
	assert.Equal(t, 2, calls)

	require.NoError(t, h(ctx, &Event{EventType: "no-id"}))
	require.NoError(t, h(ctx, &Event{EventType: "no-id"}))
	assert.Equal(t, 4, calls)
}

type brokenStore struct{}

func (brokenStore) Contains(context.Context, string) (bool, error) { return false, errors.New("down") }
func (brokenStore) Add(context.Context, string) error              { return errors.New("down") }

func TestIdempotentHandler_StoreFailureProcessesAnyway(t *testing.T) {
	calls := 0
	h := IdempotentHandler(brokenStore{}, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	require.NoError(t, h(context.Background(), &Event{EventID: "evt-2"}))
	assert.Equal(t, 1, calls)
}

func TestRedisIdempotencyStore_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := NewRedisIdempotencyStore(client, "accessjourneys:events", time.Hour)

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	assert.True(t, mr.Exists("accessjourneys:events:evt-1"))
	assert.Equal(t, time.Hour, mr.TTL("accessjourneys:events:evt-1"))

	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	mr.FastForward(61 * time.Minute)
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}
