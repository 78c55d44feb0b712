// Package estimator is the volume estimation engine: it validates requests,
// consults the result cache, dispatches to the signal sources by method,
// combines their answers and writes the result back.
package estimator

import (
	"context"
	"errors"
	"time"

	"keyword-volume/pkg/logger"
	"keyword-volume/pkg/metrics"
	"keyword-volume/pkg/source"
	"keyword-volume/pkg/storage"
	"keyword-volume/pkg/volume"
)

// Config holds orchestrator-level settings.
type Config struct {
	MaxRetries   int
	RetryDelay   time.Duration
	BatchWorkers int
}

// Service is the estimation orchestrator. Safe for concurrent use.
type Service struct {
	config       Config
	cache        *storage.Cache
	heuristic    source.Fallback
	trend        source.Adapter
	autocomplete source.Adapter
	retry        *Retry
	log          *logger.Logger
}

func NewService(config Config, cache *storage.Cache, heuristic source.Fallback, trend, autocomplete source.Adapter) *Service {
	if config.BatchWorkers <= 0 {
		config.BatchWorkers = 1
	}
	return &Service{
		config:       config,
		cache:        cache,
		heuristic:    heuristic,
		trend:        trend,
		autocomplete: autocomplete,
		retry:        NewRetry(config.MaxRetries, config.RetryDelay),
		log:          logger.GetLogger().WithField("component", "estimator"),
	}
}

// Estimate returns the volume for keyword in country using method. Only
// invalid input is reported as an error; source and storage failures
// degrade to the heuristic or to recomputation.
func (s *Service) Estimate(ctx context.Context, keyword string, country volume.Country, method volume.Method) (int, error) {
	req, err := volume.NewRequest(keyword, country, method)
	if err != nil {
		metrics.RecordEstimation(string(method), metrics.OutcomeInvalid)
		return 0, err
	}

	key := req.Key()
	if rec, ok := s.cache.Get(ctx, key); ok {
		s.log.WithField("key", key.String()).Debug("Cache hit")
		metrics.RecordEstimation(string(req.Method), metrics.OutcomeCached)
		return rec.Volume, nil
	}

	v, outcome := s.compute(ctx, req)
	s.cache.Put(ctx, key, v)

	metrics.RecordEstimation(string(req.Method), outcome)
	s.log.WithFields(map[string]interface{}{
		"keyword": req.Keyword,
		"country": req.Country,
		"method":  req.Method,
		"volume":  v,
		"outcome": outcome,
	}).Debug("Volume estimated")
	return v, nil
}

func (s *Service) compute(ctx context.Context, req volume.Request) (int, string) {
	switch req.Method {
	case volume.MethodTrend:
		return s.single(ctx, s.trend, req)
	case volume.MethodAutocomplete:
		return s.single(ctx, s.autocomplete, req)
	case volume.MethodCombined:
		return s.combined(ctx, req)
	default:
		return s.heuristic.Estimate(ctx, req.Keyword, req.Country), metrics.OutcomeFallback
	}
}

// single uses one adapter and falls back to the heuristic on failure.
func (s *Service) single(ctx context.Context, a source.Adapter, req volume.Request) (int, string) {
	r := s.fetch(ctx, a, req)
	if r.OK() {
		return r.Volume, metrics.OutcomeOK
	}
	return s.heuristic.Estimate(ctx, req.Keyword, req.Country), metrics.OutcomeFallback
}

// combined averages the enabled sources that produced a signal. Failed
// sources are left out rather than counted as zero; with no contribution
// at all the heuristic decides.
func (s *Service) combined(ctx context.Context, req volume.Request) (int, string) {
	var volumes []int
	for _, a := range []source.Adapter{s.trend, s.autocomplete} {
		if a == nil || !a.Enabled() {
			continue
		}
		r := s.fetch(ctx, a, req)
		if !r.OK() {
			continue
		}
		volumes = append(volumes, r.Volume)
	}

	if len(volumes) == 0 {
		return s.heuristic.Estimate(ctx, req.Keyword, req.Country), metrics.OutcomeFallback
	}

	sum := 0
	for _, v := range volumes {
		sum += v
	}
	return sum / len(volumes), metrics.OutcomeOK
}

// fetch calls the adapter with the configured retry budget, turning a
// panic inside the adapter into a failed Result.
func (s *Service) fetch(ctx context.Context, a source.Adapter, req volume.Request) source.Result {
	return s.retry.Fetch(ctx, func() (r source.Result) {
		defer func() {
			if p := recover(); p != nil {
				s.log.WithField("panic", p).WithField("source", a.Name()).Error("Source panicked")
				r = source.Result{Source: a.Name(), Err: errors.New("source panicked")}
			}
		}()
		return a.Fetch(ctx, req.Keyword, req.Country)
	})
}

// Clear drops every cached volume.
func (s *Service) Clear(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// CacheStats reports the cache backend state.
func (s *Service) CacheStats(ctx context.Context) storage.Stats {
	return s.cache.Stats(ctx)
}

// Info describes available methods, countries and enabled sources.
func (s *Service) Info() volume.MethodInfo {
	var enabled []string
	for _, a := range []source.Adapter{s.trend, s.autocomplete} {
		if a != nil && a.Enabled() {
			enabled = append(enabled, string(a.Name()))
		}
	}
	return volume.MethodInfo{
		CurrentMethod:      volume.MethodCombined,
		AvailableMethods:   volume.SupportedMethods,
		SupportedCountries: volume.SupportedCountries,
		EnabledSources:     enabled,
		Description:        "Open-source keyword volume estimation using multiple data sources",
	}
}
