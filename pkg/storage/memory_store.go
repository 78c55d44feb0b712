package storage

import (
	"context"
	"sync"

	"keyword-volume/pkg/volume"
)

// MemoryStore keeps records in process memory. Used for tests and for
// ephemeral runs where nothing should touch disk.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[volume.Key]volume.VolumeRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[volume.Key]volume.VolumeRecord)}
}

func (m *MemoryStore) Load(ctx context.Context, key volume.Key) (volume.VolumeRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.items[key]
	return rec, ok, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, rec volume.VolumeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[rec.Key()] = rec
	return nil
}

func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[volume.Key]volume.VolumeRecord)
	return nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Close() error { return nil }
