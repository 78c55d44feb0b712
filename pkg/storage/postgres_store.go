package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"keyword-volume/migrations"
	"keyword-volume/pkg/volume"
)

// PostgresStore keeps records in the keyword_volumes table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and applies the embedded migrations.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	if connString == "" {
		return nil, fmt.Errorf("postgres backend requires a database URL")
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(connString); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func runMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, key volume.Key) (volume.VolumeRecord, bool, error) {
	rec := volume.VolumeRecord{Keyword: key.Keyword, Country: key.Country, Method: key.Method}
	err := s.pool.QueryRow(ctx, `
		SELECT volume, computed_at FROM keyword_volumes
		WHERE keyword = $1 AND country = $2 AND method = $3
	`, key.Keyword, string(key.Country), string(key.Method)).Scan(&rec.Volume, &rec.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return volume.VolumeRecord{}, false, nil
	}
	if err != nil {
		return volume.VolumeRecord{}, false, err
	}
	return rec, true, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec volume.VolumeRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO keyword_volumes (keyword, country, method, volume, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (keyword, country, method) DO UPDATE
		SET volume = EXCLUDED.volume, computed_at = EXCLUDED.computed_at
	`, rec.Keyword, string(rec.Country), string(rec.Method), rec.Volume, rec.ComputedAt)
	return err
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE keyword_volumes RESTART IDENTITY`)
	return err
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM keyword_volumes`).Scan(&n)
	return n, err
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
