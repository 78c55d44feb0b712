package config

import (
	"time"

	"keyword-volume/pkg/estimator"
	"keyword-volume/pkg/logger"
	"keyword-volume/pkg/source"
	"keyword-volume/pkg/storage"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Heuristic HeuristicConfig `mapstructure:"heuristic"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Logger    logger.Config   `mapstructure:"logger"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type SourcesConfig struct {
	Trends       source.Config `mapstructure:"trends"`
	Autocomplete source.Config `mapstructure:"autocomplete"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
}

type HeuristicConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	TTL         time.Duration `mapstructure:"ttl"`
	Backend     string        `mapstructure:"backend"`
	DataDir     string        `mapstructure:"data_dir"`
	DatabaseURL string        `mapstructure:"database_url"`
	RedisURL    string        `mapstructure:"redis_url"`
}

type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}

// Storage returns the backend selection for storage.Open.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Backend:     c.Cache.Backend,
		DataDir:     c.Cache.DataDir,
		DatabaseURL: c.Cache.DatabaseURL,
		RedisURL:    c.Cache.RedisURL,
	}
}

// Estimator returns the orchestrator settings.
func (c *Config) Estimator() estimator.Config {
	return estimator.Config{
		MaxRetries:   c.Sources.MaxRetries,
		RetryDelay:   c.Sources.RetryDelay,
		BatchWorkers: c.Batch.Workers,
	}
}
