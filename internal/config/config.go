// Package config loads the query-cache service configuration from defaults,
// an optional config file, QUERY_CACHE_* environment variables and bound
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Sternrassler/query-cache/pkg/cache"
	"github.com/Sternrassler/query-cache/pkg/logging"
	"github.com/Sternrassler/query-cache/pkg/query"
	"github.com/Sternrassler/query-cache/pkg/records"
	"github.com/Sternrassler/query-cache/pkg/retry"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. QUERY_CACHE_REDIS_ADDR.
const EnvPrefix = "QUERY_CACHE"

// Config is the complete service configuration.
type Config struct {
	HTTP  HTTPConfig  `mapstructure:"http"`
	Redis RedisConfig `mapstructure:"redis"`
	Mongo MongoConfig `mapstructure:"mongo"`
	Cache CacheConfig `mapstructure:"cache"`
	Query QueryConfig `mapstructure:"query"`
	Retry RetryConfig `mapstructure:"retry"`
	Log   LogConfig   `mapstructure:"log"`
	Trace TraceConfig `mapstructure:"trace"`
}

// HTTPConfig configures the listener.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig configures the cache backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MongoConfig configures the record store.
type MongoConfig struct {
	URI          string        `mapstructure:"uri"`
	Database     string        `mapstructure:"database"`
	Collection   string        `mapstructure:"collection"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// CacheConfig configures envelope lifetime.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// QueryConfig configures the orchestrator.
type QueryConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	StrictWriteBack bool          `mapstructure:"strict_write_back"`
	CoalesceMisses  bool          `mapstructure:"coalesce_misses"`
}

// RetryConfig configures backend retries. MaxAttempts 1 disables retries.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"`
}

// TraceConfig configures tracing.
type TraceConfig struct {
	Stdout bool `mapstructure:"stdout"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	mongo := records.DefaultConfig()
	backoff := retry.DefaultConfig()

	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mongo.uri", mongo.URI)
	v.SetDefault("mongo.database", mongo.Database)
	v.SetDefault("mongo.collection", mongo.Collection)
	v.SetDefault("mongo.query_timeout", mongo.QueryTimeout)

	v.SetDefault("cache.ttl", cache.DefaultTTL)

	v.SetDefault("query.timeout", query.DefaultConfig().Timeout)
	v.SetDefault("query.strict_write_back", false)
	v.SetDefault("query.coalesce_misses", false)

	v.SetDefault("retry.max_attempts", 1)
	v.SetDefault("retry.initial_backoff", backoff.InitialBackoff)
	v.SetDefault("retry.max_backoff", backoff.MaxBackoff)

	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.file", "")

	v.SetDefault("trace.stdout", false)
}

// Load reads the optional config file, decodes and validates the result.
// An empty file path skips the file.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
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

var mongoURI = regexp.MustCompile(`^mongodb(\+srv)?://`)

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.Errors{
		"http":  c.HTTP.Validate(),
		"redis": c.Redis.Validate(),
		"mongo": c.Mongo.Validate(),
		"cache": c.Cache.Validate(),
		"query": c.Query.Validate(),
		"retry": c.Retry.Validate(),
		"log":   c.Log.Validate(),
	}.Filter()
}

// Validate checks the listener settings.
func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// Validate checks the cache backend settings.
func (c RedisConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DB, validation.Min(0), validation.Max(15)),
	)
}

// Validate checks the record store settings.
func (c MongoConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URI, validation.Required,
			validation.Match(mongoURI).Error("must be a mongodb:// or mongodb+srv:// URI")),
		validation.Field(&c.Database, validation.Required),
		validation.Field(&c.Collection, validation.Required),
		validation.Field(&c.QueryTimeout, validation.Min(time.Duration(0))),
	)
}

// Validate checks the envelope lifetime.
func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
	)
}

// Validate checks the orchestrator settings.
func (c QueryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// Validate checks the retry settings.
func (c RetryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&c.InitialBackoff, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxBackoff, validation.Min(c.InitialBackoff)),
	)
}

// Validate checks the logging settings.
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
	)
}

// Logging converts the log settings for pkg/logging.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	cfg.File = c.Log.File
	return cfg
}

// RetryPolicy converts the retry settings for the backend adapters.
func (c Config) RetryPolicy() retry.Config {
	if c.Retry.MaxAttempts <= 1 {
		return retry.NoRetry()
	}
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = c.Retry.MaxAttempts
	cfg.InitialBackoff = c.Retry.InitialBackoff
	cfg.MaxBackoff = c.Retry.MaxBackoff
	return cfg
}

// Records converts the Mongo settings for pkg/records.
func (c Config) Records() []records.ConfigOption {
	return []records.ConfigOption{
		records.WithURI(c.Mongo.URI),
		records.WithDatabase(c.Mongo.Database),
		records.WithCollection(c.Mongo.Collection),
		records.WithQueryTimeout(c.Mongo.QueryTimeout),
		records.WithRetry(c.RetryPolicy()),
	}
}

// Service converts the orchestrator settings for pkg/query.
func (c Config) Service() query.Config {
	cfg := query.DefaultConfig()
	cfg.TTL = c.Cache.TTL
	cfg.Timeout = c.Query.Timeout
	cfg.StrictWriteBack = c.Query.StrictWriteBack
	cfg.CoalesceMisses = c.Query.CoalesceMisses
	return cfg
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	var verrs validation.Errors
	return errors.As(err, &verrs)
}
