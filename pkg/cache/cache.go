// Package cache stores byte payloads for the NetBox client and the HTTP
// server.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for servers sharing one cache, and [NullCache] when caching is disabled.
// Keys are built by a [Keyer] so that every consumer uses the same layout.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/matzehuels/kabelplan/pkg/observability"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
//
// Get returns (nil, false, nil) on a miss. Expired entries are misses.
// A zero TTL stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Clear empties c if its backend supports it and does nothing otherwise.
func Clear(ctx context.Context, c Cache) error {
	if cl, ok := c.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return nil
}

// GetJSON reads key and unmarshals it into v. A miss returns [ErrCacheMiss].
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, v)
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// Instrument wraps c so that hits, misses and writes are reported to the
// registered observability cache hooks. The key type is the key prefix up
// to the first colon.
func Instrument(c Cache) Cache {
	if _, ok := c.(*instrumented); ok {
		return c
	}
	return &instrumented{Cache: c}
}

type instrumented struct {
	Cache
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

func (c *instrumented) Clear(ctx context.Context) error {
	return Clear(ctx, c.Cache)
}

func keyType(key string) string {
	for _, part := range strings.Split(key, ":") {
		switch part {
		case "http", "graph", "artifact":
			return part
		}
	}
	return "other"
}
