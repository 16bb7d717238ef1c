package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis keeps lists and hashes in memory for the commands RedisQueue uses
type fakeRedis struct {
	redis.Cmdable
	lists  map[string][]string
	hashes map[string]map[string]string
	zsets  map[string]int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		lists:  make(map[string][]string),
		hashes: make(map[string]map[string]string),
		zsets:  make(map[string]int64),
	}
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case string:
		return val
	default:
		raw, _ := json.Marshal(val)
		return string(raw)
	}
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		f.lists[key] = append([]string{asString(v)}, f.lists[key]...)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	for _, key := range keys {
		items := f.lists[key]
		if len(items) == 0 {
			continue
		}
		last := items[len(items)-1]
		f.lists[key] = items[:len(items)-1]
		return redis.NewStringSliceResult([]string{key, last}, nil)
	}
	return redis.NewStringSliceResult(nil, redis.Nil)
}

func (f *fakeRedis) ZRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd {
	return redis.NewStringSliceResult(nil, nil)
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	for i := 0; i+1 < len(values); i += 2 {
		f.hashes[key][asString(values[i])] = asString(values[i+1])
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (f *fakeRedis) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	var removed int64
	for _, field := range fields {
		if _, ok := f.hashes[key][field]; ok {
			delete(f.hashes[key], field)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeRedis) HGetAll(ctx context.Context, key string) *redis.StringStringMapCmd {
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return redis.NewStringStringMapResult(out, nil)
}

func (f *fakeRedis) HLen(ctx context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(f.hashes[key])), nil)
}

func (f *fakeRedis) LLen(ctx context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) ZCard(ctx context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(f.zsets[key], nil)
}

func trackProcessing(t *testing.T, rdb *fakeRedis, q *RedisQueue, id string, dequeuedAt time.Time) {
	t.Helper()
	data, err := json.Marshal(&Envelope{
		ID:         id,
		Queue:      QueueShipmentDelivered,
		Payload:    json.RawMessage(`{}`),
		MaxRetries: 3,
		DequeuedAt: dequeuedAt,
	})
	require.NoError(t, err)
	rdb.HSet(context.Background(), q.key(processingPrefix, QueueShipmentDelivered), id, data)
}

func TestStatsCountsEveryState(t *testing.T) {
	rdb := newFakeRedis()
	q := NewRedisQueue(rdb, nil, "test:")
	ctx := context.Background()

	_, err := q.Enqueue(ctx, QueueShipmentDelivered, testPayload{ShipmentID: "a"})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, QueueShipmentDelivered, testPayload{ShipmentID: "b"})
	require.NoError(t, err)
	rdb.zsets[q.key(delayedPrefix, QueueShipmentDelivered)] = 3
	rdb.HSet(ctx, q.key(failedPrefix, QueueShipmentDelivered), "dead-1", "{}")

	env, err := q.Dequeue(ctx, QueueShipmentDelivered, time.Second)
	require.NoError(t, err)
	require.NotNil(t, env)

	stats, err := q.Stats(ctx, QueueShipmentDelivered)
	require.NoError(t, err)
	assert.Equal(t, &QueueStats{
		Queue:      QueueShipmentDelivered,
		Waiting:    1,
		Processing: 1,
		Delayed:    3,
		Failed:     1,
	}, stats)
}

func TestDequeueRecordsDequeueTime(t *testing.T) {
	rdb := newFakeRedis()
	q := NewRedisQueue(rdb, nil, "test:")
	ctx := context.Background()

	id, err := q.Enqueue(ctx, QueueShipmentDelivered, testPayload{ShipmentID: "a"})
	require.NoError(t, err)

	before := time.Now().UTC()
	env, err := q.Dequeue(ctx, QueueShipmentDelivered, time.Second)
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.False(t, env.DequeuedAt.Before(before))

	var tracked Envelope
	require.NoError(t, json.Unmarshal([]byte(rdb.hashes[q.key(processingPrefix, QueueShipmentDelivered)][id]), &tracked))
	assert.WithinDuration(t, env.DequeuedAt, tracked.DequeuedAt, time.Millisecond)

	env, err = q.Dequeue(ctx, QueueShipmentDelivered, time.Second)
	assert.NoError(t, err)
	assert.Nil(t, env)
}

func TestRequeueStaleRecoversCrashedJobs(t *testing.T) {
	rdb := newFakeRedis()
	q := NewRedisQueue(rdb, nil, "test:")
	ctx := context.Background()

	trackProcessing(t, rdb, q, "crashed", time.Now().UTC().Add(-time.Hour))
	trackProcessing(t, rdb, q, "legacy", time.Time{})
	trackProcessing(t, rdb, q, "running", time.Now().UTC())
	rdb.HSet(ctx, q.key(processingPrefix, QueueShipmentDelivered), "garbage", "not json")

	requeued, err := q.RequeueStale(ctx, QueueShipmentDelivered, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, requeued)

	stats, err := q.Stats(ctx, QueueShipmentDelivered)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Waiting)
	assert.Equal(t, int64(1), stats.Processing)
	assert.Contains(t, rdb.hashes[q.key(processingPrefix, QueueShipmentDelivered)], "running")

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		env, err := q.Dequeue(ctx, QueueShipmentDelivered, time.Second)
		require.NoError(t, err)
		require.NotNil(t, env)
		assert.Equal(t, 0, env.RetryCount)
		seen[env.ID] = true
	}
	assert.Equal(t, map[string]bool{"crashed": true, "legacy": true}, seen)

	// a second sweep finds nothing new
	requeued, err = q.RequeueStale(ctx, QueueShipmentDelivered, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, requeued)
}
