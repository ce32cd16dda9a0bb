// Package config loads the service configuration from an optional YAML file
// and TYPEINDEX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override: TYPEINDEX_POD_TIMEOUT sets
// pod.timeout.
const EnvPrefix = "TYPEINDEX"

type Config struct {
	Server   Server         `mapstructure:"server" yaml:"server"`
	Log      Log            `mapstructure:"log" yaml:"log"`
	Pod      Pod            `mapstructure:"pod" yaml:"pod"`
	Cache    Cache          `mapstructure:"cache" yaml:"cache"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	Kafka    KafkaConfig    `mapstructure:"kafka" yaml:"kafka"`
	Token    TokenConfig    `mapstructure:"token" yaml:"token"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Pod configures the HTTP client talking to Solid pods.
type Pod struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// PatchFormat is "sparql" (application/sparql-update) or "n3" (text/n3).
	PatchFormat          string  `mapstructure:"patch_format" yaml:"patch_format"`
	RequestsPerSecond    float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst                int     `mapstructure:"burst" yaml:"burst"`
	MaxConcurrentFetches int     `mapstructure:"max_concurrent_fetches" yaml:"max_concurrent_fetches"`
	FailureThreshold     int     `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	SuccessThreshold     int     `mapstructure:"success_threshold" yaml:"success_threshold"`
	UserAgent            string  `mapstructure:"user_agent" yaml:"user_agent"`
	// MaxDocumentBytes rejects larger documents instead of reading them partially.
	MaxDocumentBytes int64 `mapstructure:"max_document_bytes" yaml:"max_document_bytes"`
}

// Cache selects where fetched documents are kept for conditional requests.
type Cache struct {
	// Backend is "none", "memory" or "redis".
	Backend string        `mapstructure:"backend" yaml:"backend"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" yaml:"url"`
	PoolSize     int           `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" yaml:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// PostgresConfig enables the audit store when DSN is set.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// KafkaConfig enables audit publishing when Brokers is set.
type KafkaConfig struct {
	Brokers  []string `mapstructure:"brokers" yaml:"brokers"`
	Topic    string   `mapstructure:"topic" yaml:"topic"`
	ClientID string   `mapstructure:"client_id" yaml:"client_id"`
}

// TokenConfig signs bearer tokens presented to pods. An empty SigningKey
// sends requests unauthenticated.
type TokenConfig struct {
	SigningKey string        `mapstructure:"signing_key" yaml:"signing_key"`
	Issuer     string        `mapstructure:"issuer" yaml:"issuer"`
	Audience   string        `mapstructure:"audience" yaml:"audience"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: Log{Level: "info", Format: "text"},
		Pod: Pod{
			Timeout:              15 * time.Second,
			PatchFormat:          "sparql",
			RequestsPerSecond:    20,
			Burst:                10,
			MaxConcurrentFetches: 4,
			FailureThreshold:     5,
			SuccessThreshold:     2,
			UserAgent:            "typeindex/1.0",
			MaxDocumentBytes:     10 << 20,
		},
		Cache: Cache{Backend: "memory", TTL: 5 * time.Minute},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Kafka: KafkaConfig{Topic: "typeindex.audit", ClientID: "typeindex"},
		Token: TokenConfig{Issuer: "typeindex", TTL: 5 * time.Minute},
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Pod.Timeout <= 0 {
		errs = append(errs, errors.New("pod.timeout must be positive"))
	}
	switch c.Pod.PatchFormat {
	case "sparql", "n3":
	default:
		errs = append(errs, fmt.Errorf("pod.patch_format must be sparql or n3, got %q", c.Pod.PatchFormat))
	}
	switch c.Cache.Backend {
	case "none", "memory":
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis cache backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be none, memory or redis, got %q", c.Cache.Backend))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}

// Load reads path (if not empty) and environment overrides on top of
// Default, then validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FromEnv builds the configuration from environment variables only so main
// stays lean.
func FromEnv() (Config, error) {
	return Load(os.Getenv(EnvPrefix + "_CONFIG"))
}

// WriteFile writes c as YAML, e.g. to seed a config file.
func (c Config) WriteFile(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("pod.timeout", d.Pod.Timeout)
	v.SetDefault("pod.patch_format", d.Pod.PatchFormat)
	v.SetDefault("pod.requests_per_second", d.Pod.RequestsPerSecond)
	v.SetDefault("pod.burst", d.Pod.Burst)
	v.SetDefault("pod.max_concurrent_fetches", d.Pod.MaxConcurrentFetches)
	v.SetDefault("pod.failure_threshold", d.Pod.FailureThreshold)
	v.SetDefault("pod.success_threshold", d.Pod.SuccessThreshold)
	v.SetDefault("pod.user_agent", d.Pod.UserAgent)
	v.SetDefault("pod.max_document_bytes", d.Pod.MaxDocumentBytes)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("redis.url", d.Redis.URL)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)
	v.SetDefault("redis.min_idle_conns", d.Redis.MinIdleConns)
	v.SetDefault("redis.dial_timeout", d.Redis.DialTimeout)
	v.SetDefault("redis.read_timeout", d.Redis.ReadTimeout)
	v.SetDefault("redis.write_timeout", d.Redis.WriteTimeout)
	v.SetDefault("postgres.dsn", d.Postgres.DSN)
	v.SetDefault("postgres.max_open_conns", d.Postgres.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", d.Postgres.MaxIdleConns)
	v.SetDefault("postgres.conn_max_lifetime", d.Postgres.ConnMaxLifetime)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)
	v.SetDefault("kafka.client_id", d.Kafka.ClientID)
	v.SetDefault("token.signing_key", d.Token.SigningKey)
	v.SetDefault("token.issuer", d.Token.Issuer)
	v.SetDefault("token.audience", d.Token.Audience)
	v.SetDefault("token.ttl", d.Token.TTL)
}
