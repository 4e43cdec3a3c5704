package tally

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/recallbot/internal/recall"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisPersisterEmpty(t *testing.T) {
	_, rdb := newTestRedis(t)
	snap, err := NewRedisPersister(rdb, "").Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestRedisPersisterRoundTrip(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	s := New(NewRedisPersister(rdb, "test"))
	require.NoError(t, s.Load(ctx))
	mustAdd(t, s, "Listeria", "1")
	mustAdd(t, s, "Histamine", "2")
	mustAdd(t, s, "Histamine", "3")

	assert.True(t, mr.Exists("test:reasons"))
	assert.Equal(t, "2", mr.HGet("test:counts", "Histamine"))

	reloaded := New(NewRedisPersister(rdb, "test"))
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, []recall.Entry{
		{Reason: "Histamine", Count: 2},
		{Reason: "Listeria", Count: 1},
	}, reloaded.Stats())
	assert.Equal(t, []string{"1", "2", "3"}, reloaded.Snapshot().ProcessedMessageIDs)

	require.NoError(t, reloaded.Clear(ctx))
	assert.False(t, mr.Exists("test:reasons"))
	assert.False(t, mr.Exists("test:counts"))
	assert.False(t, mr.Exists("test:processed"))
	assert.False(t, mr.Exists("test:seen"))
}

func TestRedisPersisterRecordIsIncremental(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	p := NewRedisPersister(rdb, "test")

	require.NoError(t, p.Record(ctx, "Listeria", "1"))
	require.NoError(t, p.Record(ctx, "Mold", "2"))
	require.NoError(t, p.Record(ctx, "Listeria", "3"))
	assert.ErrorIs(t, p.Record(ctx, "Mold", "3"), ErrAlreadyRecorded)

	assert.Equal(t, "2", mr.HGet("test:counts", "Listeria"))
	assert.Equal(t, "1", mr.HGet("test:counts", "Mold"))
	snap, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{
		Reasons:             []recall.Entry{{Reason: "Listeria", Count: 2}, {Reason: "Mold", Count: 1}},
		ProcessedMessageIDs: []string{"1", "2", "3"},
	}, snap)
}

func TestRedisPersisterRecordDedupsLegacyList(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	_, err := mr.Push("test:processed", "a", "b")
	require.NoError(t, err)
	_, err = mr.Push("test:reasons", "Glass")
	require.NoError(t, err)
	mr.HSet("test:counts", "Glass", "2")

	p := NewRedisPersister(rdb, "test")
	assert.ErrorIs(t, p.Record(ctx, "Glass", "a"), ErrAlreadyRecorded)
	require.NoError(t, p.Record(ctx, "Glass", "c"))
	assert.Equal(t, "3", mr.HGet("test:counts", "Glass"))
	ok, err := mr.SIsMember("test:seen", "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStoreAddDoesNotRewriteSnapshot(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	s := New(NewRedisPersister(rdb, "test"))
	other := New(NewRedisPersister(rdb, "test"))
	require.NoError(t, s.Load(ctx))
	require.NoError(t, other.Load(ctx))

	mustAdd(t, s, "Listeria", "1")
	mustAdd(t, other, "Mold", "2")
	mustAdd(t, s, "Listeria", "3")

	// Neither store overwrote the other's additions.
	assert.Equal(t, "2", mr.HGet("test:counts", "Listeria"))
	assert.Equal(t, "1", mr.HGet("test:counts", "Mold"))

	added, err := other.Add(ctx, "Mold", "3")
	require.NoError(t, err)
	assert.False(t, added)
	assert.True(t, other.HasMessageBeenProcessed("3"))
	assert.Equal(t, "1", mr.HGet("test:counts", "Mold"))

	reloaded := New(NewRedisPersister(rdb, "test"))
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, []recall.Entry{
		{Reason: "Listeria", Count: 2},
		{Reason: "Mold", Count: 1},
	}, reloaded.Stats())
	assert.Equal(t, []string{"1", "2", "3"}, reloaded.Snapshot().ProcessedMessageIDs)
}
