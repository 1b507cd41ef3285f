package analysis

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"meridian/internal/adapters/redis"
	"meridian/internal/domain/insight"
	"meridian/internal/metrics"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// CacheConfig contains configuration for report caching
type CacheConfig struct {
	Enabled  bool
	TTLQuick time.Duration // TTL for quick-mode reports
	TTLDeep  time.Duration // TTL for deep-mode reports
}

// DefaultCacheConfig returns default configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:  true,
		TTLQuick: 5 * time.Minute,
		TTLDeep:  30 * time.Minute,
	}
}

// ReportCache stores synthesized reports keyed by the router's cache key.
// The key already binds the tenant id, so entries can never cross tenants.
// All operations are best-effort: a cache failure is logged and swallowed,
// never surfaced to the pipeline.
type ReportCache struct {
	config      CacheConfig
	redisClient *redis.Client
	log         *logger.Logger

	hits   int64
	misses int64
	sets   int64
}

// NewReportCache creates a new report cache
func NewReportCache(config CacheConfig, redisClient *redis.Client) *ReportCache {
	return &ReportCache{
		config:      config,
		redisClient: redisClient,
		log:         logger.Get().With("component", "report_cache"),
	}
}

// Get retrieves a cached report. A miss and any backend failure both return
// (nil, nil).
func (rc *ReportCache) Get(ctx context.Context, key string) (*insight.StructuredReport, error) {
	if !rc.config.Enabled || rc.redisClient == nil {
		return nil, nil
	}

	var cached insight.StructuredReport
	err := rc.redisClient.Get(ctx, key, &cached)
	if err != nil {
		if strings.Contains(err.Error(), "redis: nil") {
			atomic.AddInt64(&rc.misses, 1)
			metrics.CacheOps.WithLabelValues("miss").Inc()
			return nil, nil
		}
		metrics.CacheOps.WithLabelValues("error").Inc()
		rc.log.Warn("Report cache read failed, treating as miss", "error", err)
		return nil, nil
	}

	atomic.AddInt64(&rc.hits, 1)
	metrics.CacheOps.WithLabelValues("hit").Inc()
	rc.log.Debug("Cache hit", "query_id", cached.QueryID, "age", time.Since(cached.CreatedAt))
	return &cached, nil
}

// Set stores a report with the TTL tier for its mode. One attempt, never
// retried.
func (rc *ReportCache) Set(ctx context.Context, key string, report *insight.StructuredReport, deep bool) error {
	if !rc.config.Enabled || rc.redisClient == nil {
		return nil
	}
	if report == nil {
		return errors.Wrapf(errors.ErrInvalidInput, "nil report")
	}

	ttl := rc.config.TTLQuick
	if deep {
		ttl = rc.config.TTLDeep
	}

	if err := rc.redisClient.Set(ctx, key, report, ttl); err != nil {
		metrics.CacheOps.WithLabelValues("error").Inc()
		rc.log.Warn("Report cache write failed", "error", err)
		return nil
	}

	atomic.AddInt64(&rc.sets, 1)
	metrics.CacheOps.WithLabelValues("store").Inc()
	return nil
}

// Stats returns hit/miss/set counters for logging and tests.
func (rc *ReportCache) Stats() (hits, misses, sets int64) {
	return atomic.LoadInt64(&rc.hits), atomic.LoadInt64(&rc.misses), atomic.LoadInt64(&rc.sets)
}
