// Package store implements the ArtifactStore abstraction (spec §4.3): a
// local filesystem backend for single-node/dev deployments and a remote
// HTTP backend with retry, resumable downloads, and a cached-only mode.
package store

import (
	"context"

	"github.com/bijux/atlas/internal/atlaserr"
)

// FetchResult is the outcome of FetchCatalog: either the catalog changed
// (Updated) or the caller's etag is still current (NotModified).
type FetchResult struct {
	Updated      bool
	CatalogBytes []byte
	ETag         string
}

// ArtifactStore is the single abstraction the cache manager uses to reach
// published datasets, whether they live on local disk or behind an HTTP
// object store.
type ArtifactStore interface {
	// ListDatasets returns every published dataset's canonical string.
	ListDatasets(ctx context.Context) ([]string, error)
	// GetManifest returns the raw manifest.json bytes for dataset.
	GetManifest(ctx context.Context, dataset string) ([]byte, error)
	// GetSqliteBytes returns the raw gene_summary.sqlite bytes for dataset.
	GetSqliteBytes(ctx context.Context, dataset string) ([]byte, error)
	// Exists reports whether dataset has been published.
	Exists(ctx context.Context, dataset string) (bool, error)
	// PutDataset publishes manifestBytes/sqliteBytes for dataset, verifying
	// each against its expected SHA-256 hex digest before exposing it.
	PutDataset(ctx context.Context, dataset string, manifestBytes, sqliteBytes []byte, expectedManifestSha256, expectedSqliteSha256 string) error
	// AcquirePublishLock returns a release function that must be called
	// when the caller is done publishing dataset.
	AcquirePublishLock(ctx context.Context, dataset string) (release func() error, err error)
	// FetchCatalog returns the current catalog, or FetchResult{Updated:
	// false} when ifEtag still matches the store's current etag.
	FetchCatalog(ctx context.Context, ifEtag string) (FetchResult, error)
}

// wrapNotFound is a small helper backends use to produce the stable
// NotFound error shape for a missing dataset.
func wrapNotFound(dataset string) error {
	return atlaserr.NewStoreError(atlaserr.StoreNotFound, "dataset not published: "+dataset, nil)
}
