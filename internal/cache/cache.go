// Package cache is a Redis-backed JSON cache for listing responses.
//
// Entries live under a per-namespace version number; Invalidate bumps the
// version so every entry of the namespace is orphaned at once and left to
// expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/pkg/logger"
)

const (
	NamespaceItems      = "items"
	NamespaceRequests   = "requests"
	NamespaceBarangays  = "barangays"
	NamespaceCategories = "categories"
)

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a cache. A nil client yields a cache that never hits.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.rdb != nil }

func versionKey(ns string) string { return "cache:ver:" + ns }

func (c *Cache) entryKey(ctx context.Context, ns, key string) (string, error) {
	ver, err := c.rdb.Get(ctx, versionKey(ns)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return "cache:" + ns + ":v" + strconv.FormatInt(ver, 10) + ":" + key, nil
}

// Get decodes the entry into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, ns, key string, dst interface{}) bool {
	if !c.enabled() {
		return false
	}

	k, err := c.entryKey(ctx, ns, key)
	if err != nil {
		logger.Log.Warn("Cache version lookup failed", zap.String("namespace", ns), zap.Error(err))
		return false
	}
	return c.getAt(ctx, k, dst)
}

func (c *Cache) getAt(ctx context.Context, k string, dst interface{}) bool {
	data, err := c.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Cache read failed", zap.String("key", k), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		logger.Log.Warn("Cache entry corrupt", zap.String("key", k), zap.Error(err))
		return false
	}
	return true
}

// Set stores v under key. Failures are logged and otherwise ignored.
func (c *Cache) Set(ctx context.Context, ns, key string, v interface{}) {
	if !c.enabled() {
		return
	}

	k, err := c.entryKey(ctx, ns, key)
	if err != nil {
		logger.Log.Warn("Cache version lookup failed", zap.String("namespace", ns), zap.Error(err))
		return
	}
	c.setAt(ctx, k, v)
}

// setAt writes v to an entry key resolved earlier. An entry written under a
// version that has since been bumped is never read.
func (c *Cache) setAt(ctx context.Context, k string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Warn("Cache encode failed", zap.String("key", k), zap.Error(err))
		return
	}

	if err := c.rdb.Set(ctx, k, data, c.ttl).Err(); err != nil {
		logger.Log.Warn("Cache write failed", zap.String("key", k), zap.Error(err))
	}
}

// Invalidate drops every entry of the given namespaces.
func (c *Cache) Invalidate(ctx context.Context, namespaces ...string) {
	if !c.enabled() {
		return
	}

	pipe := c.rdb.Pipeline()
	for _, ns := range namespaces {
		pipe.Incr(ctx, versionKey(ns))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("Cache invalidation failed",
			zap.Strings("namespaces", namespaces),
			zap.Error(err),
		)
	}
}

// Fetch returns the cached value for key or calls load and caches its result.
// The version is read once before load, so rows loaded while a writer
// invalidates the namespace land under the old version and are discarded.
func Fetch[T any](ctx context.Context, c *Cache, ns, key string, load func() (T, error)) (T, error) {
	if !c.enabled() {
		return load()
	}

	k, err := c.entryKey(ctx, ns, key)
	if err != nil {
		logger.Log.Warn("Cache version lookup failed", zap.String("namespace", ns), zap.Error(err))
		return load()
	}

	var v T
	if c.getAt(ctx, k, &v) {
		return v, nil
	}

	v, err = load()
	if err != nil {
		return v, err
	}
	c.setAt(ctx, k, v)
	return v, nil
}
