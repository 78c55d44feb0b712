package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"keyword-volume/pkg/logger"
	"keyword-volume/pkg/volume"
)

const volumesFile = "keyword_volumes.json"

// FileStore keeps all records in a single JSON document under dataDir.
// Writes rewrite the whole document through a temp file and rename. Stores
// opened on the same directory within one process share a lock; separate
// processes must not share the directory, use the sqlite backend for that.
type FileStore struct {
	dataDir string
	path    string
	mu      *sync.RWMutex
	log     *logger.Logger
}

var (
	fileLocksMu sync.Mutex
	fileLocks   = make(map[string]*sync.RWMutex)
)

// fileLock returns the process-wide lock for the document at path.
func fileLock(path string) *sync.RWMutex {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	fileLocksMu.Lock()
	defer fileLocksMu.Unlock()
	mu, ok := fileLocks[path]
	if !ok {
		mu = &sync.RWMutex{}
		fileLocks[path] = mu
	}
	return mu
}

// fileDocument is the on-disk layout, keyed by volume.Key.String().
type fileDocument map[string]volume.VolumeRecord

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(dataDir, volumesFile)
	return &FileStore{
		dataDir: dataDir,
		path:    path,
		mu:      fileLock(path),
		log:     logger.GetLogger().WithField("component", "file_store"),
	}, nil
}

func (s *FileStore) Load(ctx context.Context, key volume.Key) (volume.VolumeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read()
	if err != nil {
		return volume.VolumeRecord{}, false, err
	}
	rec, ok := doc[key.String()]
	return rec, ok, nil
}

func (s *FileStore) Upsert(ctx context.Context, rec volume.VolumeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		s.log.WithError(err).Warn("Volume file unreadable, rewriting it")
		doc = make(fileDocument)
	}
	doc[rec.Key().String()] = rec
	return s.write(doc)
}

func (s *FileStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove volume file: %w", err)
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to recreate data directory: %w", err)
	}
	return nil
}

func (s *FileStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read()
	if err != nil {
		return 0, err
	}
	return len(doc), nil
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Close() error { return nil }

// Path returns the location of the JSON document.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) read() (fileDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(fileDocument), nil
		}
		return nil, fmt.Errorf("failed to read volume file: %w", err)
	}
	if len(data) == 0 {
		return make(fileDocument), nil
	}

	doc := make(fileDocument)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode volume file: %w", err)
	}
	return doc, nil
}

func (s *FileStore) write(doc fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode volume file: %w", err)
	}

	tmp, err := os.CreateTemp(s.dataDir, volumesFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace volume file: %w", err)
	}
	return nil
}
