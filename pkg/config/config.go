// Package config loads the YAML configuration shared by the cms-proxy
// command and library users who prefer a file over code.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/Sternrassler/cms-client/pkg/cms"
	"github.com/Sternrassler/cms-client/pkg/logging"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Config holds all cms-client configuration.
type Config struct {
	Client  client.Config `yaml:"client"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Redis   RedisConfig   `yaml:"redis"`
}

// CacheConfig controls the read cache.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	TTL           time.Duration `yaml:"ttl"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ProxyConfig controls the cms-proxy HTTP server.
type ProxyConfig struct {
	Listen          string        `yaml:"listen"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig enables shared quota state. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns a Config with sensible defaults.
// Client.BaseURL has no default and must be configured.
func Default() *Config {
	return &Config{
		Client: client.DefaultConfig(""),
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           cms.DefaultCacheDuration,
			PruneInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level: string(logging.LevelInfo),
		},
		Proxy: ProxyConfig{
			Listen:          ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of the defaults.
// ${VAR} references are expanded from the environment first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := c.Client.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("client: %w", err))
	}

	if err := validation.ValidateStruct(&c.Logging,
		validation.Field(&c.Logging.Level, validation.In(
			string(logging.LevelDebug), string(logging.LevelInfo),
			string(logging.LevelWarn), string(logging.LevelError),
		)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("logging: %w", err))
	}

	if err := validation.ValidateStruct(&c.Proxy,
		validation.Field(&c.Proxy.Listen, validation.Required),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("proxy: %w", err))
	}

	if err := validation.ValidateStruct(&c.Redis,
		validation.Field(&c.Redis.DB, validation.Min(0)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("redis: %w", err))
	}

	return result.ErrorOrNil()
}

// CMS returns the cms.Config described by c.
func (c *Config) CMS() cms.Config {
	return cms.Config{
		Client:        c.Client,
		CacheEnabled:  c.Cache.Enabled,
		CacheDuration: c.Cache.TTL,
	}
}

// LoggerConfig returns the logging.Config described by c.
func (c *Config) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Logging.Level)
	cfg.Pretty = c.Logging.Pretty
	return cfg
}

// RedisClient returns a client for the configured Redis, or nil.
func (c *Config) RedisClient() *redis.Client {
	if c.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
}
