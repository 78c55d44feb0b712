package service

import (
	"context"
	"fmt"

	"keyword-volume/internal/config"
	"keyword-volume/pkg/estimator"
	"keyword-volume/pkg/heuristic"
	"keyword-volume/pkg/logger"
	"keyword-volume/pkg/storage"
)

// New opens the configured cache backend and wires the estimation service.
// The returned close function releases the backend.
func New(ctx context.Context, cfg *config.Config) (*estimator.Service, func() error, error) {
	log := logger.GetLogger().WithField("component", "bootstrap")

	store, err := storage.Open(ctx, cfg.Storage())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s cache backend: %w", cfg.Cache.Backend, err)
	}

	svc, err := estimator.NewServiceBuilder().
		WithTrend(cfg.Sources.Trends).
		WithAutocomplete(cfg.Sources.Autocomplete).
		WithStore(store).
		WithCache(cfg.Cache.Enabled, cfg.Cache.TTL).
		WithHeuristic(heuristic.WithDelay(cfg.Heuristic.Delay)).
		WithRetry(cfg.Sources.MaxRetries, cfg.Sources.RetryDelay).
		WithBatchWorkers(cfg.Batch.Workers).
		Build()
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	log.WithFields(map[string]interface{}{
		"backend":       store.Name(),
		"cache_enabled": cfg.Cache.Enabled,
		"cache_ttl":     cfg.Cache.TTL.String(),
		"trends":        cfg.Sources.Trends.Enabled,
		"autocomplete":  cfg.Sources.Autocomplete.Enabled,
	}).Info("Estimation service ready")

	return svc, store.Close, nil
}
