package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"keyword-volume/migrations"
	"keyword-volume/pkg/volume"
)

const sqliteFile = "keyword_volumes.db"

// sqlitePragmas make concurrent writers from other connections or
// processes wait for the lock instead of failing with SQLITE_BUSY.
const sqlitePragmas = "_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"

// SQLiteStore keeps records in keyword_volumes inside dataDir. Several
// stores and processes may share the database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(dataDir, sqliteFile)

	if err := runSQLiteMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+"?"+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func runSQLiteMigrations(path string) error {
	sourceDriver, err := iofs.New(migrations.SQLiteFS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, "sqlite://"+path+"?"+sqlitePragmas)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, key volume.Key) (volume.VolumeRecord, bool, error) {
	rec := volume.VolumeRecord{Keyword: key.Keyword, Country: key.Country, Method: key.Method}
	var computedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT volume, computed_at FROM keyword_volumes
		WHERE keyword = ? AND country = ? AND method = ?
	`, key.Keyword, string(key.Country), string(key.Method)).Scan(&rec.Volume, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return volume.VolumeRecord{}, false, nil
	}
	if err != nil {
		return volume.VolumeRecord{}, false, err
	}

	rec.ComputedAt, err = time.Parse(time.RFC3339Nano, computedAt)
	if err != nil {
		return volume.VolumeRecord{}, false, fmt.Errorf("invalid computed_at %q: %w", computedAt, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec volume.VolumeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO keyword_volumes (keyword, country, method, volume, computed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (keyword, country, method) DO UPDATE
		SET volume = excluded.volume, computed_at = excluded.computed_at
	`, rec.Keyword, string(rec.Country), string(rec.Method), rec.Volume, rec.ComputedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM keyword_volumes`)
	return err
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM keyword_volumes`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }
