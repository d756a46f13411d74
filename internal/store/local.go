package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/atomicfile"
	"github.com/bijux/atlas/internal/canonical"
	"github.com/bijux/atlas/internal/model"
)

// LocalStore implements ArtifactStore over a directory laid out per
// spec §3.4: <root>/release=<R>/species=<S>/assembly=<A>/derived/...
type LocalStore struct {
	root string
}

// NewLocalStore opens a LocalStore rooted at root. The directory is created
// if it does not already exist.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, atlaserr.NewStoreError(atlaserr.StoreOther, "creating store root", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) datasetDir(dataset string) (string, error) {
	parts := strings.Split(dataset, "/")
	if len(parts) != 3 {
		return "", atlaserr.NewStoreError(atlaserr.StoreValidation, "dataset must be release/species/assembly, got "+dataset, nil)
	}
	return filepath.Join(s.root,
		"release="+parts[0],
		"species="+parts[1],
		"assembly="+parts[2]), nil
}

func (s *LocalStore) derivedDir(dataset string) (string, error) {
	dir, err := s.datasetDir(dataset)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "derived"), nil
}

// ListDatasets walks the store root collecting every published dataset
// (one with a manifest.json present), sorted.
func (s *LocalStore) ListDatasets(ctx context.Context) ([]string, error) {
	var datasets []string
	releases, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, atlaserr.NewStoreError(atlaserr.StoreOther, "listing store root", err)
	}
	for _, release := range releases {
		releaseName := strings.TrimPrefix(release.Name(), "release=")
		speciesEntries, err := os.ReadDir(filepath.Join(s.root, release.Name()))
		if err != nil {
			continue
		}
		for _, species := range speciesEntries {
			speciesName := strings.TrimPrefix(species.Name(), "species=")
			assemblyEntries, err := os.ReadDir(filepath.Join(s.root, release.Name(), species.Name()))
			if err != nil {
				continue
			}
			for _, assembly := range assemblyEntries {
				assemblyName := strings.TrimPrefix(assembly.Name(), "assembly=")
				dataset := fmt.Sprintf("%s/%s/%s", releaseName, speciesName, assemblyName)
				manifestPath := filepath.Join(s.root, release.Name(), species.Name(), assembly.Name(), "derived", "manifest.json")
				if _, err := os.Stat(manifestPath); err == nil {
					datasets = append(datasets, dataset)
				}
			}
		}
	}
	sort.Strings(datasets)
	return datasets, nil
}

// GetManifest reads manifest.json for dataset.
func (s *LocalStore) GetManifest(ctx context.Context, dataset string) ([]byte, error) {
	dir, err := s.derivedDir(dataset)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapNotFound(dataset)
		}
		return nil, atlaserr.NewStoreError(atlaserr.StoreOther, "reading manifest", err)
	}
	return raw, nil
}

// GetSqliteBytes reads gene_summary.sqlite for dataset.
func (s *LocalStore) GetSqliteBytes(ctx context.Context, dataset string) ([]byte, error) {
	dir, err := s.derivedDir(dataset)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(dir, model.SqlitePath()))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapNotFound(dataset)
		}
		return nil, atlaserr.NewStoreError(atlaserr.StoreOther, "reading sqlite artifact", err)
	}
	return raw, nil
}

// Exists reports whether dataset's manifest has been published.
func (s *LocalStore) Exists(ctx context.Context, dataset string) (bool, error) {
	dir, err := s.derivedDir(dataset)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(dir, "manifest.json"))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, atlaserr.NewStoreError(atlaserr.StoreOther, "stat manifest", err)
}

// AcquirePublishLock creates manifest.lock under the dataset's derived
// directory with gofrs/flock's advisory exclusive lock, matching the
// "create_new, release on drop" contract of spec §4.3.
func (s *LocalStore) AcquirePublishLock(ctx context.Context, dataset string) (func() error, error) {
	dir, err := s.derivedDir(dataset)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, atlaserr.NewStoreError(atlaserr.StoreOther, "creating derived directory", err)
	}

	lockPath := filepath.Join(dir, "manifest.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, atlaserr.NewStoreError(atlaserr.StoreOther, "acquiring publish lock", err)
	}
	if !locked {
		return nil, atlaserr.NewStoreError(atlaserr.StoreConflict, "dataset publish already in progress: "+dataset, nil)
	}
	return lock.Unlock, nil
}

// PutDataset verifies manifestBytes/sqliteBytes against their expected
// digests, then atomically writes them into the dataset's derived
// directory. No artifact is exposed if verification fails.
func (s *LocalStore) PutDataset(ctx context.Context, dataset string, manifestBytes, sqliteBytes []byte, expectedManifestSha256, expectedSqliteSha256 string) error {
	if got := canonical.SHA256Hex(manifestBytes); got != expectedManifestSha256 {
		return atlaserr.NewStoreError(atlaserr.StoreValidation,
			fmt.Sprintf("manifest checksum mismatch: expected %s got %s", expectedManifestSha256, got), nil)
	}
	if got := canonical.SHA256Hex(sqliteBytes); got != expectedSqliteSha256 {
		return atlaserr.NewStoreError(atlaserr.StoreValidation,
			fmt.Sprintf("sqlite checksum mismatch: expected %s got %s", expectedSqliteSha256, got), nil)
	}

	dir, err := s.derivedDir(dataset)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return atlaserr.NewStoreError(atlaserr.StoreOther, "creating derived directory", err)
	}

	if err := atomicfile.Write(filepath.Join(dir, model.SqlitePath()), sqliteBytes, 0o644); err != nil {
		return atlaserr.NewStoreError(atlaserr.StoreOther, "writing sqlite artifact", err)
	}
	if err := atomicfile.Write(filepath.Join(dir, "manifest.json"), manifestBytes, 0o644); err != nil {
		return atlaserr.NewStoreError(atlaserr.StoreOther, "writing manifest", err)
	}
	return nil
}

// FetchCatalog rebuilds the catalog from ListDatasets and compares its
// content hash against ifEtag.
func (s *LocalStore) FetchCatalog(ctx context.Context, ifEtag string) (FetchResult, error) {
	datasets, err := s.ListDatasets(ctx)
	if err != nil {
		return FetchResult{}, err
	}
	entries := make([]model.CatalogEntry, 0, len(datasets))
	for _, d := range datasets {
		entries = append(entries, model.CatalogEntry{
			Dataset:      d,
			ManifestPath: "manifest.json",
			SqlitePath:   model.SqlitePath(),
		})
	}
	catalog := &model.Catalog{SchemaVersion: "1", Entries: entries}
	raw, err := model.EncodeCatalog(catalog)
	if err != nil {
		return FetchResult{}, atlaserr.NewStoreError(atlaserr.StoreOther, "encoding catalog", err)
	}
	etag := canonical.SHA256Hex(raw)
	if etag == ifEtag {
		return FetchResult{Updated: false, ETag: etag}, nil
	}
	return FetchResult{Updated: true, CatalogBytes: raw, ETag: etag}, nil
}
