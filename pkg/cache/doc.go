// Package cache provides the cache side of the product query service:
// key derivation, the expiring envelope, and the key-value store contract
// with a Redis implementation and an in-memory double.
//
// # Keys
//
// DeriveKey hashes the canonical JSON form of a query payload:
//
//	key, err := cache.DeriveKey(product.QueryPayload{ProductID: product.String("123")})
//	// key == "CACHE_ASIDE_" + 64 hex characters
//
// # Envelopes
//
// Every cached value is an Envelope carrying its own expiry. Readers must
// check IsFresh on every read; a Redis TTL is set as well but only as a
// backend hint.
//
//	env := cache.Wrap(products, cache.DefaultTTL, time.Now())
//	data, err := cache.Encode(env)
//	if err := store.Set(ctx, key, data, env.TTL(time.Now())); err != nil {
//		return err
//	}
//
// # Stores
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewRedisStore(redisClient, cache.WithRetry(retry.DefaultConfig()))
//
//	data, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fall back to the record store
//	}
//
// # Metrics
//
//   - query_cache_hits_total - fresh envelopes served
//   - query_cache_misses_total - absent keys
//   - query_cache_expired_total - stale envelopes deleted on read
//   - query_cache_value_size_bytes - value sizes read and written
//   - query_cache_errors_total{operation} - backend errors
package cache
