package atlasconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atlas.yaml")
	contents := `
cache:
  disk_root: /var/lib/atlas/cache
  pinned_datasets:
    - "109/homo_sapiens/GRCh38"
  breaker_failure_threshold: 3
  breaker_open_duration: 15s
query_limits:
  max_limit: 250
  min_prefix_len: 3
store_retry:
  max_attempts: 6
cursor_secret: "test-secret"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.DiskRoot != "/var/lib/atlas/cache" {
		t.Fatalf("unexpected disk root: %q", cfg.Cache.DiskRoot)
	}
	if len(cfg.Cache.PinnedDatasets) != 1 || cfg.Cache.PinnedDatasets[0] != "109/homo_sapiens/GRCh38" {
		t.Fatalf("unexpected pinned datasets: %+v", cfg.Cache.PinnedDatasets)
	}
	if cfg.Cache.BreakerFailureThreshold != 3 {
		t.Fatalf("unexpected breaker failure threshold: %d", cfg.Cache.BreakerFailureThreshold)
	}
	if cfg.QueryLimits.MaxLimit != 250 {
		t.Fatalf("unexpected max limit: %d", cfg.QueryLimits.MaxLimit)
	}
	if cfg.StoreRetry.MaxAttempts != 6 {
		t.Fatalf("unexpected max attempts: %d", cfg.StoreRetry.MaxAttempts)
	}
	if cfg.CursorSecret != "test-secret" {
		t.Fatalf("unexpected cursor secret: %q", cfg.CursorSecret)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsIncompleteConfig(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty config")
	}

	cfg = Config{
		Cache:        DefaultCacheConfig("/var/lib/atlas/cache"),
		QueryLimits:  DefaultQueryLimits(),
		StoreRetry:   DefaultStoreRetryPolicy(),
		CursorSecret: "secret",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}
