package storage

import (
	"context"
	"fmt"
	"time"

	"keyword-volume/pkg/logger"
	"keyword-volume/pkg/metrics"
	"keyword-volume/pkg/volume"
)

// DefaultTTL is the freshness window of a cached volume.
const DefaultTTL = 24 * time.Hour

// CacheConfig controls the Cache wrapper.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// Cache is the best-effort result cache in front of a Store. Backend
// failures never escape: a failed read is a miss and a failed write is
// dropped after logging.
type Cache struct {
	store   Store
	enabled bool
	ttl     time.Duration
	now     func() time.Time
	log     *logger.Logger
}

func NewCache(store Store, config CacheConfig) *Cache {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store:   store,
		enabled: config.Enabled,
		ttl:     ttl,
		now:     time.Now,
		log:     logger.GetLogger().WithField("component", "volume_cache"),
	}
}

// SetClock replaces the time source; tests use it to age records.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// Get returns the record for key only while it is fresh.
func (c *Cache) Get(ctx context.Context, key volume.Key) (volume.VolumeRecord, bool) {
	if !c.enabled {
		return volume.VolumeRecord{}, false
	}

	rec, ok, err := c.store.Load(ctx, key)
	if err != nil {
		metrics.RecordCacheLookup("error")
		metrics.RecordStorageError("load")
		c.log.WithError(fmt.Errorf("%w: %v", volume.ErrStorageUnavailable, err)).
			WithField("key", key.String()).Warn("Cache read failed, recomputing")
		return volume.VolumeRecord{}, false
	}
	if !ok || !rec.Fresh(c.now(), c.ttl) {
		metrics.RecordCacheLookup("miss")
		return volume.VolumeRecord{}, false
	}

	metrics.RecordCacheLookup("hit")
	return rec, true
}

// Put upserts the volume for key stamped with the current time.
func (c *Cache) Put(ctx context.Context, key volume.Key, v int) {
	if !c.enabled {
		return
	}

	rec := volume.VolumeRecord{
		Keyword:    key.Keyword,
		Country:    key.Country,
		Method:     key.Method,
		Volume:     v,
		ComputedAt: c.now(),
	}
	if err := c.store.Upsert(ctx, rec); err != nil {
		metrics.RecordStorageError("upsert")
		c.log.WithError(fmt.Errorf("%w: %v", volume.ErrStorageUnavailable, err)).
			WithField("key", key.String()).Warn("Cache write failed, result not cached")
	}
}

// Clear drops every record. Unlike Get and Put it reports failure, since
// callers asked for it explicitly.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Reset(ctx); err != nil {
		metrics.RecordStorageError("reset")
		return fmt.Errorf("%w: %v", volume.ErrStorageUnavailable, err)
	}
	c.log.WithField("backend", c.store.Name()).Info("Volume cache cleared")
	return nil
}

// Stats reports backend, settings and record count. A failed count is
// reported as -1.
func (c *Cache) Stats(ctx context.Context) Stats {
	n, err := c.store.Count(ctx)
	if err != nil {
		metrics.RecordStorageError("count")
		n = -1
	}
	return Stats{
		Backend: c.store.Name(),
		Enabled: c.enabled,
		TTL:     c.ttl.String(),
		Records: n,
	}
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.store.Close()
}
