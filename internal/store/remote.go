package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/canonical"
)

// RetryPolicy configures the remote backend's retry/backoff behavior.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// RemoteStore implements ArtifactStore against an HTTP/S3-like object
// store: base URL + path convention matching LocalStore's layout, with
// retried, resumable, rate-limited downloads. When CachedOnly is true, every
// method that would otherwise perform network I/O fails fast instead.
type RemoteStore struct {
	client     *http.Client
	baseURL    string
	retry      RetryPolicy
	limiter    *rate.Limiter
	cachedOnly bool
}

// NewRemoteStore constructs a RemoteStore. limiter may be nil to disable
// client-side pacing.
func NewRemoteStore(client *http.Client, baseURL string, retry RetryPolicy, limiter *rate.Limiter, cachedOnly bool) *RemoteStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteStore{client: client, baseURL: baseURL, retry: retry, limiter: limiter, cachedOnly: cachedOnly}
}

func (s *RemoteStore) backoffPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retry.BaseBackoff
	policy := backoff.WithMaxRetries(b, uint64(s.retry.MaxAttempts))
	return backoff.WithContext(policy, ctx)
}

// fetch issues a GET to path, retrying on 5xx/network errors per RetryPolicy.
// rangeStart, when > 0, requests a resumed download via Range: bytes=N-.
func (s *RemoteStore) fetch(ctx context.Context, path string, rangeStart int64) ([]byte, error) {
	if s.cachedOnly {
		return nil, atlaserr.NewStoreError(atlaserr.StoreCachedOnly, "cached-only mode: "+path, nil)
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, atlaserr.NewStoreError(atlaserr.StoreTimeout, "rate limiter wait", err)
		}
	}

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(atlaserr.NewStoreError(atlaserr.StoreOther, "building request", err))
		}
		if rangeStart > 0 {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-", rangeStart))
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return atlaserr.NewStoreError(atlaserr.StoreNetwork, "request failed", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(wrapNotFound(path))
		case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusPartialContent:
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return atlaserr.NewStoreError(atlaserr.StoreNetwork, "reading response body", err)
			}
			body = data
			return nil
		case resp.StatusCode >= 500:
			return atlaserr.NewStoreError(atlaserr.StoreUnavailable, fmt.Sprintf("upstream returned %d", resp.StatusCode), nil)
		default:
			return backoff.Permanent(atlaserr.NewStoreError(atlaserr.StoreOther, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil))
		}
	}

	if err := backoff.Retry(op, s.backoffPolicy(ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func datasetPath(dataset, file string) string {
	return "/" + dataset + "/" + file
}

// ListDatasets is not implemented for RemoteStore and always fails;
// FetchCatalog is the remote backend's discovery path.
func (s *RemoteStore) ListDatasets(ctx context.Context) ([]string, error) {
	return nil, atlaserr.NewStoreError(atlaserr.StoreOther, "RemoteStore: use FetchCatalog for discovery", nil)
}

// GetManifest downloads manifest.json for dataset.
func (s *RemoteStore) GetManifest(ctx context.Context, dataset string) ([]byte, error) {
	return s.fetch(ctx, datasetPath(dataset, "derived/manifest.json"), 0)
}

// GetSqliteBytes downloads gene_summary.sqlite for dataset.
func (s *RemoteStore) GetSqliteBytes(ctx context.Context, dataset string) ([]byte, error) {
	return s.fetch(ctx, datasetPath(dataset, "derived/gene_summary.sqlite"), 0)
}

// ResumeSqliteBytes resumes a previously partial download from offset bytes
// in using a Range request.
func (s *RemoteStore) ResumeSqliteBytes(ctx context.Context, dataset string, offset int64) ([]byte, error) {
	return s.fetch(ctx, datasetPath(dataset, "derived/gene_summary.sqlite"), offset)
}

// Exists issues a manifest fetch and reports success, translating NotFound
// into a false result rather than an error.
func (s *RemoteStore) Exists(ctx context.Context, dataset string) (bool, error) {
	_, err := s.GetManifest(ctx, dataset)
	if err == nil {
		return true, nil
	}
	if se, ok := err.(*atlaserr.StoreError); ok && se.Code == atlaserr.StoreNotFound {
		return false, nil
	}
	return false, err
}

// PutDataset is not supported by RemoteStore: publication always happens
// through the local backend, then is mirrored to remote storage by an
// external sync process outside the core's scope.
func (s *RemoteStore) PutDataset(ctx context.Context, dataset string, manifestBytes, sqliteBytes []byte, expectedManifestSha256, expectedSqliteSha256 string) error {
	return atlaserr.NewStoreError(atlaserr.StoreOther, "RemoteStore is read-only", nil)
}

// AcquirePublishLock is not supported by RemoteStore.
func (s *RemoteStore) AcquirePublishLock(ctx context.Context, dataset string) (func() error, error) {
	return nil, atlaserr.NewStoreError(atlaserr.StoreOther, "RemoteStore is read-only", nil)
}

// FetchCatalog downloads the current catalog.json and reports whether its
// content hash differs from ifEtag.
func (s *RemoteStore) FetchCatalog(ctx context.Context, ifEtag string) (FetchResult, error) {
	raw, err := s.fetch(ctx, "/catalog.json", 0)
	if err != nil {
		return FetchResult{}, err
	}
	etag := canonical.SHA256Hex(raw)
	if etag == ifEtag {
		return FetchResult{Updated: false, ETag: etag}, nil
	}
	return FetchResult{Updated: true, CatalogBytes: raw, ETag: etag}, nil
}
