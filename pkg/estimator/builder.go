package estimator

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"keyword-volume/pkg/heuristic"
	"keyword-volume/pkg/source"
	"keyword-volume/pkg/storage"
)

// ServiceBuilder collects settings, validates them and wires a Service.
// Validation errors accumulate and are reported together by Build.
type ServiceBuilder struct {
	trend         source.Config
	autocomplete  source.Config
	store         storage.Store
	cacheConfig   storage.CacheConfig
	heuristicOpts []heuristic.Option
	config        Config
	errors        []error
}

// NewServiceBuilder starts from the defaults: both sources enabled on their
// public endpoints, cache enabled for 24h over an in-memory store.
func NewServiceBuilder() *ServiceBuilder {
	return &ServiceBuilder{
		trend:        source.Config{Enabled: true, Endpoint: source.DefaultTrendEndpoint, Timeout: 30 * time.Second},
		autocomplete: source.Config{Enabled: true, Endpoint: source.DefaultAutocompleteEndpoint, Timeout: 30 * time.Second},
		cacheConfig:  storage.CacheConfig{Enabled: true, TTL: storage.DefaultTTL},
		config:       Config{RetryDelay: time.Second, BatchWorkers: 1},
	}
}

// WithTrend sets the trend source configuration.
func (b *ServiceBuilder) WithTrend(config source.Config) *ServiceBuilder {
	if err := validateSource("trend", config); err != nil {
		b.errors = append(b.errors, err)
		return b
	}
	b.trend = config
	return b
}

// WithAutocomplete sets the autocomplete source configuration.
func (b *ServiceBuilder) WithAutocomplete(config source.Config) *ServiceBuilder {
	if err := validateSource("autocomplete", config); err != nil {
		b.errors = append(b.errors, err)
		return b
	}
	b.autocomplete = config
	return b
}

// WithStore sets the cache backend.
func (b *ServiceBuilder) WithStore(store storage.Store) *ServiceBuilder {
	if store == nil {
		b.errors = append(b.errors, fmt.Errorf("store cannot be nil"))
		return b
	}
	b.store = store
	return b
}

// WithCache sets cache enablement and freshness window.
func (b *ServiceBuilder) WithCache(enabled bool, ttl time.Duration) *ServiceBuilder {
	if ttl <= 0 {
		b.errors = append(b.errors, fmt.Errorf("cache ttl must be positive, got: %s", ttl))
		return b
	}
	b.cacheConfig = storage.CacheConfig{Enabled: enabled, TTL: ttl}
	return b
}

// WithHeuristic passes options to the heuristic estimator.
func (b *ServiceBuilder) WithHeuristic(opts ...heuristic.Option) *ServiceBuilder {
	b.heuristicOpts = append(b.heuristicOpts, opts...)
	return b
}

// WithRetry enables bounded orchestrator retries for failing sources.
func (b *ServiceBuilder) WithRetry(maxRetries int, delay time.Duration) *ServiceBuilder {
	if maxRetries < 0 || maxRetries > 10 {
		b.errors = append(b.errors, fmt.Errorf("max retries must be between 0 and 10, got: %d", maxRetries))
		return b
	}
	if delay < 0 {
		b.errors = append(b.errors, fmt.Errorf("retry delay cannot be negative, got: %s", delay))
		return b
	}
	b.config.MaxRetries = maxRetries
	b.config.RetryDelay = delay
	return b
}

// WithBatchWorkers sets the batch runner's parallelism.
func (b *ServiceBuilder) WithBatchWorkers(count int) *ServiceBuilder {
	if count <= 0 || count > 50 {
		b.errors = append(b.errors, fmt.Errorf("batch workers must be between 1 and 50, got: %d", count))
		return b
	}
	b.config.BatchWorkers = count
	return b
}

// Validate reports every accumulated error at once.
func (b *ServiceBuilder) Validate() error {
	if len(b.errors) == 0 {
		return nil
	}
	msgs := make([]string, len(b.errors))
	for i, err := range b.errors {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(msgs, "; "))
}

// Build wires heuristic, adapters and cache into a Service.
func (b *ServiceBuilder) Build() (*Service, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		store = storage.NewMemoryStore()
	}

	h := heuristic.New(b.heuristicOpts...)
	return NewService(
		b.config,
		storage.NewCache(store, b.cacheConfig),
		h,
		source.NewTrendAdapter(b.trend, h),
		source.NewAutocompleteAdapter(b.autocomplete, h),
	), nil
}

func validateSource(name string, config source.Config) error {
	if config.Timeout < 0 || config.Delay < 0 {
		return fmt.Errorf("%s timeout and delay cannot be negative", name)
	}
	if config.Endpoint == "" {
		return nil
	}
	u, err := url.Parse(config.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid %s endpoint: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s endpoint %q: scheme must be http or https", name, config.Endpoint)
	}
	return nil
}
