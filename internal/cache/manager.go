// Package cache implements the dataset cache manager (spec §4.4): the sole
// bridge between the (possibly remote) artifact store and the query
// executor. Given a dataset it returns an open, verified, read-only SQLite
// connection, downloading and verifying the artifact on first access and
// guarding the store behind per-dataset and global circuit breakers.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"
	gocache "github.com/patrickmn/go-cache"

	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/atlasconfig"
	"github.com/bijux/atlas/internal/atomicfile"
	"github.com/bijux/atlas/internal/canonical"
	"github.com/bijux/atlas/internal/model"
	"github.com/bijux/atlas/internal/store"
)

// cachedDataset bundles one dataset's breaker, quarantine state, and
// (once opened) its Entry. Held in Manager.datasets keyed by the dataset's
// canonical "release/species/assembly" string.
type cachedDataset struct {
	mu         sync.Mutex
	breaker    breaker
	quarantine quarantine
	entry      *Entry
}

// Manager is the dataset cache manager. It is safe for concurrent use.
type Manager struct {
	store store.ArtifactStore
	cfg   atlasconfig.CacheConfig

	mu       sync.Mutex
	datasets map[string]*cachedDataset

	// contentKeys caches the .dataset-index/<dataset>.key lookup so a hot
	// dataset does not hit disk on every request; entries expire on the
	// same cadence as reverification so a stale mapping is never trusted
	// past the next integrity check.
	contentKeys *gocache.Cache

	storeBreaker breaker
	retryBudget  atomic.Int32 // remaining store retries this process may spend

	shardPermits chan struct{}

	Counters Counters
}

// NewManager constructs a Manager over store, rooted at cfg.DiskRoot.
func NewManager(s store.ArtifactStore, cfg atlasconfig.CacheConfig) *Manager {
	reverify := cfg.ReverifyInterval
	if reverify <= 0 {
		reverify = 10 * time.Minute
	}
	m := &Manager{
		store:       s,
		cfg:         cfg,
		datasets:    make(map[string]*cachedDataset),
		contentKeys: gocache.New(reverify, reverify*2),
	}
	m.retryBudget.Store(int32(cfg.RetryBudget))
	if cfg.MaxOpenShardsPerPod > 0 {
		m.shardPermits = make(chan struct{}, cfg.MaxOpenShardsPerPod)
	}
	return m
}

// spendRetry consumes one unit of the process-wide store retry budget,
// reporting whether the budget is already exhausted (spec §4.4.1's
// RetryBudget "limits total store retries").
func (m *Manager) spendRetry() (exhausted bool) {
	return m.retryBudget.Add(-1) < 0
}

func (m *Manager) datasetState(dataset string) *cachedDataset {
	m.mu.Lock()
	defer m.mu.Unlock()
	cd, ok := m.datasets[dataset]
	if !ok {
		cd = &cachedDataset{}
		m.datasets[dataset] = cd
	}
	return cd
}

// IsPinned reports whether dataset is listed in cfg.PinnedDatasets and must
// never be evicted from the on-disk cache.
func (m *Manager) IsPinned(dataset string) bool {
	for _, p := range m.cfg.PinnedDatasets {
		if p == dataset {
			return true
		}
	}
	return false
}

func contentKey(manifest *model.ArtifactManifest, dataset string) string {
	if manifest.ArtifactHash != "" {
		return manifest.ArtifactHash
	}
	if manifest.Checksums.SqliteSha256 != "" {
		return manifest.Checksums.SqliteSha256
	}
	return canonical.SHA256Hex([]byte(dataset))
}

func (m *Manager) contentDir(key string) string {
	return filepath.Join(m.cfg.DiskRoot, key)
}

func datasetIndexFilename(dataset string) string {
	return strings.ReplaceAll(dataset, "/", "_") + ".key"
}

func (m *Manager) datasetIndexPath(dataset string) string {
	return filepath.Join(m.cfg.DiskRoot, ".dataset-index", datasetIndexFilename(dataset))
}

// lookupContentKey returns the content key dataset currently maps to,
// checking the in-memory cache before falling back to the on-disk
// .dataset-index mapping file.
func (m *Manager) lookupContentKey(dataset string) (string, bool) {
	if v, ok := m.contentKeys.Get(dataset); ok {
		return v.(string), true
	}
	raw, err := os.ReadFile(m.datasetIndexPath(dataset))
	if err != nil {
		return "", false
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", false
	}
	m.contentKeys.SetDefault(dataset, key)
	return key, true
}

func (m *Manager) storeContentKey(dataset, key string) error {
	dir := filepath.Join(m.cfg.DiskRoot, ".dataset-index")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := atomicfile.Write(m.datasetIndexPath(dataset), []byte(key), 0o644); err != nil {
		return err
	}
	m.contentKeys.SetDefault(dataset, key)
	return nil
}

// OpenDatasetConnection executes the open protocol of spec §4.4.2 and
// returns a read-only *sql.DB for dataset, reusing an already-open
// connection when available.
func (m *Manager) OpenDatasetConnection(ctx context.Context, dataset string) (*sql.DB, error) {
	now := time.Now()
	cd := m.datasetState(dataset)

	cd.mu.Lock()
	defer cd.mu.Unlock()

	quarantined, isRecoveryProbe := cd.quarantine.check(now)
	if quarantined {
		return nil, atlaserr.NewCacheError("quarantined", nil)
	}

	if cd.breaker.isOpen(now) {
		return nil, atlaserr.NewCacheError("breaker_open", nil)
	}

	switch m.storeBreaker.check(now) {
	case breakerDeny:
		return nil, atlaserr.NewCacheError("store_breaker_open", nil)
	case breakerAllowProbe:
		m.Counters.StoreBreakerHalfOpenTotal.Add(1)
	}

	if cd.entry != nil && cd.entry.db != nil {
		cd.breaker.recordSuccess()
		return cd.entry.db, nil
	}

	entry, err := m.materialize(ctx, dataset)
	if err != nil {
		m.recordOpenFailure(cd, dataset, now, err)
		if isRecoveryProbe {
			cd.quarantine.recordRecoveryFailure(now, m.cfg.QuarantineRetryTTL)
		}
		return nil, err
	}

	db, err := openReadOnly(entry.SqlitePath)
	if err != nil {
		m.recordOpenFailure(cd, dataset, now, err)
		if isRecoveryProbe {
			cd.quarantine.recordRecoveryFailure(now, m.cfg.QuarantineRetryTTL)
		}
		return nil, atlaserr.NewCacheError("opening sqlite connection", err)
	}

	entry.db = db
	entry.LastVerifiedAt = now
	cd.entry = entry
	cd.breaker.recordSuccess()
	cd.quarantine.recordRecoverySuccess()
	m.storeBreaker.recordSuccess()
	return db, nil
}

func (m *Manager) recordOpenFailure(cd *cachedDataset, dataset string, now time.Time, err error) {
	cd.breaker.recordFailure(now, m.cfg.BreakerFailureThreshold, m.cfg.BreakerOpenDuration)
	if opened := m.storeBreaker.recordFailure(now, m.cfg.StoreBreakerFailureThreshold, m.cfg.StoreBreakerOpenDuration); opened {
		m.Counters.StoreBreakerOpenTotal.Add(1)
	}
	if se, ok := err.(*atlaserr.StoreError); ok {
		m.Counters.recordStoreErr(string(se.Code))
		m.Counters.StoreDownloadFailures.Add(1)
		if m.spendRetry() {
			m.storeBreaker.recordFailure(now, 1, m.cfg.StoreBreakerOpenDuration)
		}
	}
}

// materialize ensures dataset's manifest and sqlite artifact are present on
// disk, downloading them via the store if necessary, then returns the
// resulting Entry (without an open db handle). Downloaded sqlite bytes are
// checked against the manifest checksum; files already on disk under the
// dataset's content key are reused without re-hashing.
func (m *Manager) materialize(ctx context.Context, dataset string) (*Entry, error) {
	if key, ok := m.lookupContentKey(dataset); ok {
		dir := m.contentDir(key)
		manifestPath := filepath.Join(dir, "manifest.json")
		sqlitePath := filepath.Join(dir, model.SqlitePath())
		if manifestRaw, err := os.ReadFile(manifestPath); err == nil {
			if _, err := os.Stat(sqlitePath); err == nil {
				manifest, err := model.DecodeManifest(manifestRaw)
				if err == nil {
					return &Entry{Manifest: manifest, ContentKey: key, DiskDir: dir, SqlitePath: sqlitePath}, nil
				}
			}
		}
	}

	manifestRaw, err := m.store.GetManifest(ctx, dataset)
	if err != nil {
		return nil, err
	}
	manifest, err := model.DecodeManifest(manifestRaw)
	if err != nil {
		return nil, atlaserr.NewCacheError("decoding manifest", err)
	}
	if err := manifest.ValidateStrict(); err != nil {
		return nil, atlaserr.NewCacheError("invalid manifest", err)
	}

	sqliteRaw, err := m.store.GetSqliteBytes(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if got := canonical.SHA256Hex(sqliteRaw); got != manifest.Checksums.SqliteSha256 {
		m.Counters.StoreErrorChecksumTotal.Add(1)
		return nil, atlaserr.NewCacheError("sqlite checksum mismatch", nil)
	}

	key := contentKey(manifest, dataset)
	dir := m.contentDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, atlaserr.NewCacheError("creating cache directory", err)
	}

	release, err := m.acquireArtifactLease(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer release()

	sqlitePath := filepath.Join(dir, model.SqlitePath())
	if err := atomicfile.Write(sqlitePath, sqliteRaw, 0o644); err != nil {
		return nil, atlaserr.NewCacheError("writing cached sqlite artifact", err)
	}
	if err := atomicfile.Write(filepath.Join(dir, "manifest.json"), manifestRaw, 0o644); err != nil {
		return nil, atlaserr.NewCacheError("writing cached manifest", err)
	}
	if err := m.storeContentKey(dataset, key); err != nil {
		return nil, atlaserr.NewCacheError("writing dataset index", err)
	}

	return &Entry{Manifest: manifest, ContentKey: key, DiskDir: dir, SqlitePath: sqlitePath}, nil
}

// acquireArtifactLease takes an exclusive file lease on dir so exactly one
// worker writes a given artifact into the cache directory at a time
// (spec §4.4.5). materialize fetches the manifest and sqlite bytes from the
// store before taking the lease, so the lease does not stop two workers from
// downloading the same artifact.
func (m *Manager) acquireArtifactLease(ctx context.Context, dir string) (release func(), err error) {
	lock := flock.New(filepath.Join(dir, "artifact.lease"))
	timeout := m.cfg.LeaseTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	leaseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	locked, err := lock.TryLockContext(leaseCtx, 50*time.Millisecond)
	if err != nil {
		return nil, atlaserr.NewCacheError("acquiring artifact lease", err)
	}
	if !locked {
		return nil, atlaserr.NewCacheError("artifact lease held by another worker", nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

func openReadOnly(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?mode=ro&_mutex=no&immutable=1", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// AcquireShardPermit blocks until a shard file-descriptor permit is
// available (spec §4.4.4), returning a release function to call when the
// caller is done with the shard.
func (m *Manager) AcquireShardPermit(ctx context.Context) (release func(), err error) {
	if m.shardPermits == nil {
		return func() {}, nil
	}
	select {
	case m.shardPermits <- struct{}{}:
		return func() { <-m.shardPermits }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReverifyCachedDatasets re-hashes every cached dataset's sqlite file
// against its manifest checksum (spec §4.4.3), evicting and quarantining
// datasets whose files have diverged.
func (m *Manager) ReverifyCachedDatasets(now time.Time) {
	m.mu.Lock()
	snapshot := make(map[string]*cachedDataset, len(m.datasets))
	for k, v := range m.datasets {
		snapshot[k] = v
	}
	m.mu.Unlock()

	for dataset, cd := range snapshot {
		cd.mu.Lock()
		entry := cd.entry
		cd.mu.Unlock()
		if entry == nil {
			continue
		}

		m.Counters.VerifyFullHashChecks.Add(1)
		raw, err := os.ReadFile(entry.SqlitePath)
		ok := err == nil && canonical.SHA256Hex(raw) == entry.Manifest.Checksums.SqliteSha256
		if ok {
			continue
		}

		cd.mu.Lock()
		if cd.entry != nil && cd.entry.db != nil {
			cd.entry.db.Close()
		}
		cd.entry = nil
		m.contentKeys.Delete(dataset)
		quarantined := cd.quarantine.recordCorruptionFailure(now, m.cfg.QuarantineAfterCorruptionFailures, m.cfg.QuarantineRetryTTL)
		if quarantined {
			cd.breaker.recordFailure(now, 1, m.cfg.QuarantineRetryTTL)
		}
		cd.mu.Unlock()
	}
}

// Close releases every open SQLite connection the manager holds.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, cd := range m.datasets {
		cd.mu.Lock()
		if cd.entry != nil && cd.entry.db != nil {
			if err := cd.entry.db.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		cd.mu.Unlock()
	}
	return firstErr
}
