// Package storage persists volume records and exposes the best-effort,
// freshness-aware Cache used by the estimator.
package storage

import (
	"context"

	"keyword-volume/pkg/volume"
)

// Store is a persistent key-value backend for volume records keyed by
// (keyword, country, method). Implementations must be safe for concurrent
// use; concurrent upserts of the same key are last-writer-wins.
type Store interface {
	// Load returns the stored record for key regardless of its age.
	Load(ctx context.Context, key volume.Key) (volume.VolumeRecord, bool, error)

	// Upsert inserts or overwrites the record for rec.Key().
	Upsert(ctx context.Context, rec volume.VolumeRecord) error

	// Reset drops every record and leaves the store ready for use.
	Reset(ctx context.Context) error

	// Count returns the number of stored records, stale ones included.
	Count(ctx context.Context) (int, error)

	// Name identifies the backend in logs and stats.
	Name() string

	Close() error
}

// Stats summarises a cache for the info surfaces.
type Stats struct {
	Backend string `json:"backend"`
	Enabled bool   `json:"enabled"`
	TTL     string `json:"ttl"`
	Records int    `json:"records"`
}
