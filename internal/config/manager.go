package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"keyword-volume/pkg/source"
	"keyword-volume/pkg/storage"
)

// EnvPrefix namespaces environment overrides, e.g. KV_CACHE_BACKEND.
const EnvPrefix = "KV"

type manager struct {
	mu         sync.RWMutex
	config     *Config
	viper      *viper.Viper
	configPath string
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Load reads defaults, the optional YAML file at configPath and KV_*
// environment overrides, in increasing precedence.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configPath = configPath
	m.setupViper()

	config, err := m.read()
	if err != nil {
		return nil, err
	}
	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	config, err := m.read()
	if err != nil {
		return err
	}
	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) read() (*Config, error) {
	if m.configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := m.validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func (m *manager) setupViper() {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	setDefaults(m.viper)
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("sources.trends.enabled", true)
	v.SetDefault("sources.trends.endpoint", source.DefaultTrendEndpoint)
	v.SetDefault("sources.trends.timeout", "30s")
	v.SetDefault("sources.trends.delay", "0s")
	v.SetDefault("sources.autocomplete.enabled", true)
	v.SetDefault("sources.autocomplete.endpoint", source.DefaultAutocompleteEndpoint)
	v.SetDefault("sources.autocomplete.timeout", "30s")
	v.SetDefault("sources.autocomplete.delay", "0s")
	v.SetDefault("sources.max_retries", 0)
	v.SetDefault("sources.retry_delay", "1s")

	v.SetDefault("heuristic.delay", "100ms")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.backend", storage.BackendSQLite)
	v.SetDefault("cache.data_dir", "data")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("batch.workers", 1)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.time_format", "")
}

func (m *manager) validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	switch config.Cache.Backend {
	case storage.BackendSQLite, storage.BackendFile:
		if config.Cache.DataDir == "" {
			return fmt.Errorf("cache.data_dir cannot be empty")
		}
	case storage.BackendPostgres:
		if config.Cache.DatabaseURL == "" {
			return fmt.Errorf("cache.database_url is required for the postgres backend")
		}
	case storage.BackendRedis:
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	case storage.BackendMemory:
	default:
		return fmt.Errorf("unknown cache.backend: %q", config.Cache.Backend)
	}

	if config.Sources.MaxRetries < 0 {
		return fmt.Errorf("sources.max_retries cannot be negative")
	}

	if config.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be positive")
	}

	if config.Heuristic.Delay < 0 {
		return fmt.Errorf("heuristic.delay cannot be negative")
	}

	return nil
}
