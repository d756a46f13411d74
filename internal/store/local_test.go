package store

import (
	"context"
	"testing"

	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/canonical"
)

func TestLocalStorePutDatasetAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	manifest := []byte(`{"manifest_version":"1"}`)
	sqlite := []byte("SQLite format 3\x00fake")
	dataset := "109/homo_sapiens/GRCh38"

	release, err := s.AcquirePublishLock(ctx, dataset)
	if err != nil {
		t.Fatalf("AcquirePublishLock: %v", err)
	}
	defer release()

	if err := s.PutDataset(ctx, dataset, manifest, sqlite, canonical.SHA256Hex(manifest), canonical.SHA256Hex(sqlite)); err != nil {
		t.Fatalf("PutDataset: %v", err)
	}

	exists, err := s.Exists(ctx, dataset)
	if err != nil || !exists {
		t.Fatalf("expected dataset to exist, err=%v exists=%v", err, exists)
	}

	got, err := s.GetManifest(ctx, dataset)
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if string(got) != string(manifest) {
		t.Fatalf("manifest round trip mismatch: %q", got)
	}

	datasets, err := s.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}
	if len(datasets) != 1 || datasets[0] != dataset {
		t.Fatalf("unexpected dataset list: %+v", datasets)
	}
}

func TestLocalStorePutDatasetRejectsChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	err = s.PutDataset(ctx, "109/homo_sapiens/GRCh38", []byte("m"), []byte("s"), "wrong", "also-wrong")
	if err == nil {
		t.Fatal("expected checksum validation failure")
	}
	se, ok := err.(*atlaserr.StoreError)
	if !ok || se.Code != atlaserr.StoreValidation {
		t.Fatalf("expected StoreError{Validation}, got %v", err)
	}
}

func TestLocalStoreGetManifestNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	_, err = s.GetManifest(ctx, "109/homo_sapiens/GRCh38")
	se, ok := err.(*atlaserr.StoreError)
	if !ok || se.Code != atlaserr.StoreNotFound {
		t.Fatalf("expected StoreError{NotFound}, got %v", err)
	}
}

func TestLocalStoreFetchCatalogReportsNotModified(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	first, err := s.FetchCatalog(ctx, "")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	second, err := s.FetchCatalog(ctx, first.ETag)
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if second.Updated {
		t.Fatal("expected NotModified when etag matches")
	}
}
