package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword-volume/pkg/volume"
)

// failingStore fails every operation it is told to.
type failingStore struct {
	*MemoryStore
	failLoad   bool
	failUpsert bool
	failReset  bool
}

var errBackend = errors.New("backend down")

func (f *failingStore) Load(ctx context.Context, key volume.Key) (volume.VolumeRecord, bool, error) {
	if f.failLoad {
		return volume.VolumeRecord{}, false, errBackend
	}
	return f.MemoryStore.Load(ctx, key)
}

func (f *failingStore) Upsert(ctx context.Context, rec volume.VolumeRecord) error {
	if f.failUpsert {
		return errBackend
	}
	return f.MemoryStore.Upsert(ctx, rec)
}

func (f *failingStore) Reset(ctx context.Context) error {
	if f.failReset {
		return errBackend
	}
	return f.MemoryStore.Reset(ctx)
}

var testKey = volume.Key{Keyword: "shoes", Country: volume.CountryUS, Method: volume.MethodCombined}

func TestCache_PutGet(t *testing.T) {
	c := NewCache(NewMemoryStore(), CacheConfig{Enabled: true})
	ctx := context.Background()

	_, ok := c.Get(ctx, testKey)
	assert.False(t, ok)

	c.Put(ctx, testKey, 1234)
	rec, ok := c.Get(ctx, testKey)
	require.True(t, ok)
	assert.Equal(t, 1234, rec.Volume)
	assert.Equal(t, testKey, rec.Key())

	c.Put(ctx, testKey, 99)
	rec, ok = c.Get(ctx, testKey)
	require.True(t, ok)
	assert.Equal(t, 99, rec.Volume, "put overwrites")
}

func TestCache_ExpiredRecordsAreMasked(t *testing.T) {
	store := NewMemoryStore()
	c := NewCache(store, CacheConfig{Enabled: true, TTL: 24 * time.Hour})
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })
	c.Put(ctx, testKey, 500)

	now = now.Add(23*time.Hour + 59*time.Minute)
	_, ok := c.Get(ctx, testKey)
	assert.True(t, ok, "still fresh just under 24h")

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, testKey)
	assert.False(t, ok, "stale after 24h")

	n, _ := store.Count(ctx)
	assert.Equal(t, 1, n, "stale record is masked, not deleted")
}

func TestCache_Disabled(t *testing.T) {
	store := NewMemoryStore()
	c := NewCache(store, CacheConfig{Enabled: false})
	ctx := context.Background()

	c.Put(ctx, testKey, 1)
	_, ok := c.Get(ctx, testKey)
	assert.False(t, ok)

	n, _ := store.Count(ctx)
	assert.Equal(t, 0, n)
}

func TestCache_BackendFailuresAreSwallowed(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failLoad: true, failUpsert: true}
	c := NewCache(store, CacheConfig{Enabled: true})
	ctx := context.Background()

	assert.NotPanics(t, func() { c.Put(ctx, testKey, 10) })
	_, ok := c.Get(ctx, testKey)
	assert.False(t, ok)
}

func TestCache_ClearReportsFailure(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failReset: true}
	c := NewCache(store, CacheConfig{Enabled: true})

	err := c.Clear(context.Background())
	assert.ErrorIs(t, err, volume.ErrStorageUnavailable)
}

func TestCache_ClearThenReuse(t *testing.T) {
	c := NewCache(NewMemoryStore(), CacheConfig{Enabled: true})
	ctx := context.Background()

	c.Put(ctx, testKey, 10)
	require.NoError(t, c.Clear(ctx))

	_, ok := c.Get(ctx, testKey)
	assert.False(t, ok)

	c.Put(ctx, testKey, 20)
	rec, ok := c.Get(ctx, testKey)
	require.True(t, ok)
	assert.Equal(t, 20, rec.Volume)
}

func TestCache_Stats(t *testing.T) {
	c := NewCache(NewMemoryStore(), CacheConfig{Enabled: true})
	ctx := context.Background()
	c.Put(ctx, testKey, 1)

	st := c.Stats(ctx)
	assert.Equal(t, "memory", st.Backend)
	assert.Equal(t, 1, st.Records)
	assert.Equal(t, "24h0m0s", st.TTL)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache(NewMemoryStore(), CacheConfig{Enabled: true})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			c.Put(ctx, testKey, v)
			c.Get(ctx, testKey)
		}(i)
	}
	wg.Wait()

	rec, ok := c.Get(ctx, testKey)
	require.True(t, ok)
	assert.GreaterOrEqual(t, rec.Volume, 0)
	assert.Less(t, rec.Volume, 20)
}
