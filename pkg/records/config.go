package records

import (
	"time"

	"github.com/Sternrassler/query-cache/pkg/retry"
)

// Config contains MongoDB connection configuration.
type Config struct {
	// URI is the MongoDB connection string.
	URI string

	// Database is the database name.
	Database string

	// Collection holds the product documents.
	Collection string

	// AppName is reported to the server for connection attribution.
	AppName string

	// ConnectTimeout bounds the initial connect and ping.
	ConnectTimeout time.Duration

	// QueryTimeout bounds every single query.
	QueryTimeout time.Duration

	// MaxPoolSize is the maximum connection pool size.
	MaxPoolSize uint64

	// Retry is applied to every query.
	Retry retry.Config
}

// DefaultConfig returns the configuration of the docker-compose deployment.
func DefaultConfig() Config {
	return Config{
		URI:            "mongodb://mongo:27017",
		Database:       "query_cache",
		Collection:     "products",
		AppName:        "query_cache",
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   5 * time.Second,
		MaxPoolSize:    100,
		Retry:          retry.NoRetry(),
	}
}

// ConfigOption configures the MongoDB connection.
type ConfigOption func(*Config)

// WithURI sets the MongoDB connection URI.
func WithURI(uri string) ConfigOption {
	return func(c *Config) {
		c.URI = uri
	}
}

// WithDatabase sets the database name.
func WithDatabase(db string) ConfigOption {
	return func(c *Config) {
		c.Database = db
	}
}

// WithCollection sets the product collection name.
func WithCollection(name string) ConfigOption {
	return func(c *Config) {
		c.Collection = name
	}
}

// WithQueryTimeout sets the per-query timeout.
func WithQueryTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.QueryTimeout = d
	}
}

// WithRetry sets the retry policy for queries.
func WithRetry(cfg retry.Config) ConfigOption {
	return func(c *Config) {
		c.Retry = cfg
	}
}
