package model

import (
	"fmt"

	"github.com/bijux/atlas/internal/canonical"
)

// CatalogEntry points at one published dataset's manifest and sqlite paths.
type CatalogEntry struct {
	Dataset      string `json:"dataset"`
	ManifestPath string `json:"manifest_path"`
	SqlitePath   string `json:"sqlite_path"`
}

// Catalog is the ordered, deduplicated list of published datasets a store
// backend advertises.
type Catalog struct {
	SchemaVersion string         `json:"schema_version"`
	Entries       []CatalogEntry `json:"entries"`
}

// ValidateStrict checks the catalog is sorted, unique by dataset, and that
// every entry has non-empty paths.
func (c *Catalog) ValidateStrict() error {
	if c.SchemaVersion == "" {
		return fmt.Errorf("model: catalog schema_version must not be empty")
	}
	for i, e := range c.Entries {
		if e.Dataset == "" || e.ManifestPath == "" || e.SqlitePath == "" {
			return fmt.Errorf("model: catalog entry %d has an empty field", i)
		}
		if i > 0 {
			prev := c.Entries[i-1]
			if e.Dataset == prev.Dataset {
				return fmt.Errorf("model: catalog entry %d duplicates dataset %q", i, e.Dataset)
			}
			if e.Dataset < prev.Dataset {
				return fmt.Errorf("model: catalog entries not sorted: %q before %q", prev.Dataset, e.Dataset)
			}
		}
	}
	return nil
}

// DecodeCatalog strictly parses an on-disk catalog document.
func DecodeCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := strictDecode(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// EncodeCatalog serializes a catalog with canonical key ordering.
func EncodeCatalog(c *Catalog) ([]byte, error) {
	return canonical.StableJSONBytes(c)
}
