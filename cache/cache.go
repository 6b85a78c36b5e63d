package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache is a TTL key/value store. Implementations may keep values in memory
// or serialize them to disk.
type Cache interface {
	// Get retrieves a value from the cache. The context controls cancellation
	// and timeout for I/O-backed implementations.
	Get(ctx context.Context, key string) (bool, any, error)

	// Set stores a value in the cache with a TTL. If expires <= 0, the
	// cache's configured default TTL is used.
	Set(ctx context.Context, key string, val any, expires time.Duration) error

	// Expire removes a key from the cache.
	Expire(ctx context.Context, key string) (bool, error)

	// Close shuts down the cache.
	Close() error
}

type value struct {
	object  any
	expires time.Time
}

// GetTyped retrieves a typed value from the cache.
// For in-memory caches, it performs a direct type assertion.
// For serialized caches (like SQLite), it deserializes from []byte using msgpack.
func GetTyped[T any](ctx context.Context, c Cache, key string) (bool, T, error) {
	found, val, err := c.Get(ctx, key)
	if !found || err != nil {
		var zero T
		return false, zero, err
	}
	// Serialized caches hand back raw msgpack bytes. Decode those before the
	// plain type assertion: when T is an interface type the assertion would
	// accept the []byte itself and the caller would see the wire bytes
	// instead of the stored value. Skip the decode only when the caller
	// actually asked for []byte.
	if data, ok := val.([]byte); ok {
		if _, wantsBytes := any(*new(T)).([]byte); !wantsBytes {
			var result T
			if err := msgpack.Unmarshal(data, &result); err == nil {
				return true, result, nil
			}
		}
	}
	if typed, ok := val.(T); ok {
		return true, typed, nil
	}
	var zero T
	return false, zero, fmt.Errorf("cache: cannot convert value of type %T to %T", val, *new(T))
}

// DefaultExpires is the default TTL used when Set is called with expires <= 0.
const DefaultExpires = time.Hour

// Option configures a Cache implementation.
type Option func(*config)

type config struct {
	defaultExpires time.Duration
	expiryCheck    time.Duration
}

func defaultConfig() config {
	return config{
		defaultExpires: DefaultExpires,
		expiryCheck:    time.Minute,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithExpires sets the default TTL for cached values.
func WithExpires(d time.Duration) Option {
	return func(c *config) { c.defaultExpires = d }
}

// WithExpiryCheck sets the interval for background expired entry cleanup.
func WithExpiryCheck(d time.Duration) Option {
	return func(c *config) { c.expiryCheck = d }
}

// Invoker is a function that produces a value of type T. The bool return
// indicates whether a value was found; return false to signal "not found"
// without caching a zero value.
type Invoker[T any] func(ctx context.Context) (T, bool, error)

// Exec is a cache-aside helper. On a hit the cached value is returned; on a
// miss invoke produces the value and, if found, it is stored with the given
// TTL. A failed Set after a successful invoke is swallowed since the caller
// already has their value.
func Exec[T any](ctx context.Context, c Cache, key string, expires time.Duration, invoke Invoker[T]) (bool, T, error) {
	found, val, err := GetTyped[T](ctx, c, key)
	if err != nil {
		var zero T
		return false, zero, err
	}
	if found {
		return true, val, nil
	}

	result, ok, err := invoke(ctx)
	if err != nil {
		var zero T
		return false, zero, err
	}
	if !ok {
		var zero T
		return false, zero, nil
	}

	_ = c.Set(ctx, key, result, expires)

	return true, result, nil
}
