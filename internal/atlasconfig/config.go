// Package atlasconfig holds every configuration value the core needs from
// its host. The core never reads environment variables itself — the host
// resolves cache roots, secrets, and limits and passes them in explicitly,
// the same way the teacher's internal/config.Config is always constructed
// by the caller rather than read ambiently.
package atlasconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// QueryLimits bounds the cost and shape of gene queries the planner accepts.
type QueryLimits struct {
	MaxLimit           int `yaml:"max_limit"`
	MinPrefixLen       int `yaml:"min_prefix_len"`
	MaxPrefixLen       int `yaml:"max_prefix_len"`
	MaxPrefixCostUnits int64 `yaml:"max_prefix_cost_units"`
	MaxRegionSpan      uint64 `yaml:"max_region_span"`
	MaxWorkUnits       int64 `yaml:"max_work_units"`
}

// DefaultQueryLimits returns limits suitable for small/medium datasets;
// hosts are expected to tune these for their own deployment.
func DefaultQueryLimits() QueryLimits {
	return QueryLimits{
		MaxLimit:           500,
		MinPrefixLen:       2,
		MaxPrefixLen:       64,
		MaxPrefixCostUnits: 5000,
		MaxRegionSpan:      50_000_000,
		MaxWorkUnits:       10000,
	}
}

// CacheConfig configures the dataset cache manager (§4.4 of the spec).
type CacheConfig struct {
	DiskRoot                         string        `yaml:"disk_root"`
	PinnedDatasets                   []string      `yaml:"pinned_datasets"`
	BreakerFailureThreshold          int           `yaml:"breaker_failure_threshold"`
	BreakerOpenDuration              time.Duration `yaml:"breaker_open_duration"`
	StoreBreakerFailureThreshold     int           `yaml:"store_breaker_failure_threshold"`
	StoreBreakerOpenDuration         time.Duration `yaml:"store_breaker_open_duration"`
	QuarantineAfterCorruptionFailures int          `yaml:"quarantine_after_corruption_failures"`
	QuarantineRetryTTL               time.Duration `yaml:"quarantine_retry_ttl"`
	MaxOpenShardsPerPod              int           `yaml:"max_open_shards_per_pod"`
	ReverifyInterval                 time.Duration `yaml:"reverify_interval"`
	LeaseTimeout                     time.Duration `yaml:"lease_timeout"`
	RetryBudget                      int           `yaml:"retry_budget"`
}

// DefaultCacheConfig returns reasonable operational defaults.
func DefaultCacheConfig(diskRoot string) CacheConfig {
	return CacheConfig{
		DiskRoot:                          diskRoot,
		BreakerFailureThreshold:           5,
		BreakerOpenDuration:               30 * time.Second,
		StoreBreakerFailureThreshold:      5,
		StoreBreakerOpenDuration:          30 * time.Second,
		QuarantineAfterCorruptionFailures: 3,
		QuarantineRetryTTL:                5 * time.Minute,
		MaxOpenShardsPerPod:               64,
		ReverifyInterval:                  10 * time.Minute,
		LeaseTimeout:                      2 * time.Minute,
		RetryBudget:                       20,
	}
}

// StoreRetryPolicy configures the remote store backend's retry/backoff.
type StoreRetryPolicy struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	BaseBackoff    time.Duration `yaml:"base_backoff"`
}

// DefaultStoreRetryPolicy returns conservative retry defaults.
func DefaultStoreRetryPolicy() StoreRetryPolicy {
	return StoreRetryPolicy{MaxAttempts: 4, BaseBackoff: 200 * time.Millisecond}
}

// Config is the full host-supplied configuration surface visible to the core
// (spec §6.5): cache, query limits, store retry policy, and the cursor HMAC
// secret.
type Config struct {
	Cache       CacheConfig      `yaml:"cache"`
	QueryLimits QueryLimits      `yaml:"query_limits"`
	StoreRetry  StoreRetryPolicy `yaml:"store_retry"`
	CursorSecret string          `yaml:"cursor_secret"`
}

// Load reads and parses a YAML configuration file. Unlike the teacher's
// Load, this never falls back to environment-derived defaults on a missing
// path — host configuration is always explicit.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("atlasconfig: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("atlasconfig: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the configuration is internally consistent enough to
// construct the cache manager and query planner.
func (c *Config) Validate() error {
	if c.Cache.DiskRoot == "" {
		return fmt.Errorf("atlasconfig: cache.disk_root must not be empty")
	}
	if c.QueryLimits.MaxLimit <= 0 {
		return fmt.Errorf("atlasconfig: query_limits.max_limit must be > 0")
	}
	if c.CursorSecret == "" {
		return fmt.Errorf("atlasconfig: cursor_secret must not be empty")
	}
	return nil
}
