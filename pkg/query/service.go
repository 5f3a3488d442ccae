// Package query implements the cache-aside product lookup: derive a key,
// serve a fresh envelope from the cache, otherwise query the record store
// and write the result back.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/query-cache/pkg/cache"
	"github.com/Sternrassler/query-cache/pkg/logging"
	"github.com/Sternrassler/query-cache/pkg/product"
	"github.com/Sternrassler/query-cache/pkg/records"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Policy is the record-store lookup chosen for a payload.
type Policy string

const (
	// PolicyByID looks up exactly one record by product_id.
	PolicyByID Policy = "by_id"

	// PolicyByName looks up a bounded set of records by display-name fragment.
	PolicyByName Policy = "by_name"

	// PolicyNone means the payload is under-specified.
	PolicyNone Policy = "none"
)

// SelectPolicy picks the lookup for a payload. A product_id always wins over
// a display name when both are present.
func SelectPolicy(p product.QueryPayload) Policy {
	switch {
	case p.HasProductID():
		return PolicyByID
	case p.HasDisplayName():
		return PolicyByName
	default:
		return PolicyNone
	}
}

// Config holds the service configuration.
type Config struct {
	// TTL is the freshness window of written envelopes.
	TTL time.Duration

	// Timeout bounds a whole Handle call, backend calls included.
	// Zero disables the bound.
	Timeout time.Duration

	// FragmentLimit caps name-fragment results.
	FragmentLimit int

	// StrictWriteBack fails the request when the write-back fails.
	// When false the fetched records are returned and the failure is logged.
	StrictWriteBack bool

	// CoalesceMisses lets concurrent misses on the same key share one
	// record-store lookup and one write-back. The shared lookup is not
	// cancelled with the caller that started it; each caller still returns
	// when its own context ends.
	CoalesceMisses bool

	// Now is the clock used for envelope freshness.
	Now func() time.Time
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		TTL:           cache.DefaultTTL,
		Timeout:       5 * time.Second,
		FragmentLimit: records.FragmentLimit,
		Now:           time.Now,
	}
}

// Service answers product queries through the cache.
type Service struct {
	cache   cache.Store
	records records.Store
	config  Config
	logger  zerolog.Logger
	tracer  trace.Tracer
	flight  singleflight.Group
}

// New creates a query service over a cache store and a record store.
func New(cacheStore cache.Store, recordStore records.Store, cfg Config) (*Service, error) {
	if cacheStore == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if recordStore == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("ttl must be positive (got %s)", cfg.TTL)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative (got %s)", cfg.Timeout)
	}
	if cfg.FragmentLimit <= 0 {
		cfg.FragmentLimit = records.FragmentLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		cache:   cacheStore,
		records: recordStore,
		config:  cfg,
		logger:  logging.NewLogger("query-service"),
		tracer:  otel.Tracer("github.com/Sternrassler/query-cache/pkg/query"),
	}, nil
}

// Handle answers a query. Errors are *QueryError values; use errors.Is with
// ErrInvalidQuery, ErrDataNotFound or ErrInternal to classify them.
func (s *Service) Handle(ctx context.Context, payload product.QueryPayload) (result []product.Product, err error) {
	policy := SelectPolicy(payload)
	startTime := time.Now()
	cacheHit := false

	ctx, span := s.tracer.Start(ctx, "query.Handle",
		trace.WithAttributes(attribute.String("query.policy", string(policy))))
	defer func() {
		requestDuration.WithLabelValues(string(policy)).Observe(time.Since(startTime).Seconds())
		requestsTotal.WithLabelValues(string(policy), outcome(err, cacheHit)).Inc()
		span.SetAttributes(attribute.Bool("query.cache_hit", cacheHit))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(KindOf(err)))
		}
		span.End()
	}()

	if policy == PolicyNone {
		return nil, invalidQuery()
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	key, err := cache.DeriveKey(payload)
	if err != nil {
		return nil, internal("derive_key", err)
	}
	logger := s.logger.With().Str("key", key).Str("policy", string(policy)).Logger()

	// Step 1: Check Cache
	cached, hit, err := s.readCache(ctx, key, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Cache read failed")
		return nil, err
	}
	if hit {
		cacheHit = true
		return cached, nil
	}

	// Step 2: Record store lookup and write-back
	if !s.config.CoalesceMisses {
		return s.loadAndStore(ctx, key, payload, policy, logger)
	}

	ch := s.flight.DoChan(key, func() (interface{}, error) {
		sharedCtx, cancel := s.sharedContext(ctx)
		defer cancel()
		return s.loadAndStore(sharedCtx, key, payload, policy, logger)
	})

	select {
	case res := <-ch:
		if res.Shared {
			coalescedTotal.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		loaded := res.Val.([]product.Product)
		out := make([]product.Product, len(loaded))
		copy(out, loaded)
		return out, nil
	case <-ctx.Done():
		logger.Debug().Err(ctx.Err()).Msg("Caller gave up waiting for shared lookup")
		return nil, internal("record_lookup", ctx.Err())
	}
}

// sharedContext detaches a coalesced lookup from the caller that started it,
// so its cancellation does not fail the other waiters. The lookup keeps its
// own Timeout bound.
func (s *Service) sharedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.config.Timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, s.config.Timeout)
}

// readCache returns the cached products when a fresh envelope exists.
// A stale envelope is deleted and reported as a miss.
func (s *Service) readCache(ctx context.Context, key string, logger zerolog.Logger) ([]product.Product, bool, error) {
	data, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		cache.CacheMisses.Inc()
		logger.Debug().Msg("Cache miss")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, internal("cache_get", err)
	}

	envelope, err := cache.Decode(data)
	if err != nil {
		return nil, false, internal("cache_decode", err)
	}

	now := s.config.Now()
	if !envelope.IsFresh(now) {
		cache.CacheExpired.Inc()
		logger.Debug().
			Time("expires_at", envelope.ExpiresAt).
			Msg("Cache entry expired, deleting")
		if err := s.cache.Delete(ctx, key); err != nil {
			return nil, false, internal("cache_delete", err)
		}
		return nil, false, nil
	}

	if len(envelope.Products) == 0 {
		// never written by this service; treat as a miss
		return nil, false, nil
	}

	cache.CacheHits.Inc()
	logger.Debug().
		Int("products", len(envelope.Products)).
		Dur("ttl", envelope.TTL(now)).
		Msg("Cache hit")
	return envelope.Products, true, nil
}

func (s *Service) loadAndStore(ctx context.Context, key string, payload product.QueryPayload, policy Policy, logger zerolog.Logger) ([]product.Product, error) {
	products, err := s.lookup(ctx, payload, policy)
	if err != nil {
		logger.Error().Err(err).Msg("Record store lookup failed")
		return nil, internal("record_lookup", err)
	}
	if len(products) == 0 {
		logger.Debug().Msg("No records found")
		return nil, dataNotFound(policy)
	}

	if err := s.writeBack(ctx, key, products); err != nil {
		writeBackFailuresTotal.Inc()
		logger.Warn().Err(err).Int("products", len(products)).Msg("Cache write-back failed")
		if s.config.StrictWriteBack {
			return nil, internal("cache_set", err)
		}
		return products, nil
	}

	logger.Debug().
		Int("products", len(products)).
		Dur("ttl", s.config.TTL).
		Msg("Cached query result")
	return products, nil
}

func (s *Service) lookup(ctx context.Context, payload product.QueryPayload, policy Policy) ([]product.Product, error) {
	switch policy {
	case PolicyByID:
		found, err := s.records.FindByID(ctx, *payload.ProductID)
		if err != nil || found == nil {
			return nil, err
		}
		return []product.Product{*found}, nil
	case PolicyByName:
		found, err := s.records.FindByNameFragment(ctx, *payload.ProductDisplayName, s.config.FragmentLimit)
		if err != nil {
			return nil, err
		}
		if len(found) > s.config.FragmentLimit {
			found = found[:s.config.FragmentLimit]
		}
		return found, nil
	default:
		return nil, fmt.Errorf("no lookup for policy %q", policy)
	}
}

func (s *Service) writeBack(ctx context.Context, key string, products []product.Product) error {
	envelope := cache.Wrap(products, s.config.TTL, s.config.Now())
	data, err := cache.Encode(envelope)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.config.TTL)
}

func outcome(err error, cacheHit bool) string {
	switch {
	case err != nil:
		return string(KindOf(err))
	case cacheHit:
		return "hit"
	default:
		return "miss"
	}
}
