// Package cache keeps computed performance reports in redis for a short time
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reportPrefix = "fir:report:"

// ReportCache stores serialized reports by key
type ReportCache interface {
	// Get decodes the cached value into dest. ok is false on a miss.
	Get(ctx context.Context, key string, dest interface{}) (ok bool, err error)
	Set(ctx context.Context, key string, value interface{}) error
	// Invalidate drops every cached report, called after any case write
	Invalidate(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache connects to redisURL. An empty URL gives a cache that never
// hits.
func NewReportCache(redisURL string, ttl time.Duration) (ReportCache, error) {
	if redisURL == "" {
		zap.S().Info("REDIS_URL not set, report caching disabled")
		return NoopReportCache{}, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return &redisReportCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (c *redisReportCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, reportPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisReportCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reportPrefix+key, data, c.ttl).Err()
}

func (c *redisReportCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, reportPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// NoopReportCache never stores anything
type NoopReportCache struct{}

// Get always misses
func (NoopReportCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }

// Set does nothing
func (NoopReportCache) Set(context.Context, string, interface{}) error { return nil }

// Invalidate does nothing
func (NoopReportCache) Invalidate(context.Context) error { return nil }

// Key builds a cache key from the report name, the caller's scope and the
// query parameters, independent of parameter order
func Key(report, scopeKey string, query url.Values) string {
	params := make([]string, 0, len(query))
	for k, vs := range query {
		sorted := append([]string(nil), vs...)
		sort.Strings(sorted)
		params = append(params, k+"="+strings.Join(sorted, ","))
	}
	sort.Strings(params)
	return report + ":" + scopeKey + ":" + strings.Join(params, "&")
}
