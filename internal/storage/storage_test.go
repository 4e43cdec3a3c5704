package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/recallbot/internal/config"
	"github.com/memohai/recallbot/internal/logger"
	"github.com/memohai/recallbot/internal/recall"
	"github.com/memohai/recallbot/internal/tally"
)

func TestOpenMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.StoreDriverMemory

	b, err := Open(context.Background(), logger.Discard(), cfg)
	require.NoError(t, err)
	defer b.Close()
	assert.IsType(t, &tally.MemoryPersister{}, b.Persister)
}

func TestOpenFile(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "recalls.json")

	b, err := Open(context.Background(), logger.Discard(), cfg)
	require.NoError(t, err)
	defer b.Close()
	p, ok := b.Persister.(*tally.FilePersister)
	require.True(t, ok)
	assert.Equal(t, cfg.Store.Path, p.Path())
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Driver = config.StoreDriverRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Prefix = "test"
	ctx := context.Background()

	b, err := Open(ctx, logger.Discard(), cfg)
	require.NoError(t, err)
	defer b.Close()

	store := tally.New(b.Persister)
	require.NoError(t, store.Load(ctx))
	_, err = store.Add(ctx, "Listeria", "m1")
	require.NoError(t, err)

	reloaded := tally.New(b.Persister)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, []recall.Entry{{Reason: "Listeria", Count: 1}}, reloaded.Stats())
	assert.True(t, mr.Exists("test:counts"))
}

func TestOpenRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Store.Driver = config.StoreDriverRedis
	cfg.Redis.Addr = addr

	_, err := Open(context.Background(), logger.Discard(), cfg)
	require.Error(t, err)
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "etcd"

	_, err := Open(context.Background(), logger.Discard(), cfg)
	require.ErrorContains(t, err, `unsupported store driver "etcd"`)
}

func TestNilBackendClose(t *testing.T) {
	var b *Backend
	assert.NotPanics(t, b.Close)
}
