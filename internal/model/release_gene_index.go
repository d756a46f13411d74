package model

import (
	"fmt"

	"github.com/bijux/atlas/internal/canonical"
)

// ReleaseGeneIndexEntry is one gene's stable coordinates and content
// signature within a release, independent of the relational artifact.
type ReleaseGeneIndexEntry struct {
	GeneID         string `json:"gene_id"`
	Seqid          string `json:"seqid"`
	Start          uint64 `json:"start"`
	End            uint64 `json:"end"`
	SignatureSha256 string `json:"signature_sha256"`
}

// GeneProjection is the subset of gene fields that feed a gene's content
// signature, kept separate from ReleaseGeneIndexEntry so signature
// computation doesn't depend on coordinate fields changing shape later.
type GeneProjection struct {
	GeneID   string `json:"gene_id"`
	Name     string `json:"name"`
	Biotype  string `json:"biotype"`
	Seqid    string `json:"seqid"`
	Start    uint64 `json:"start"`
	End      uint64 `json:"end"`
	Strand   string `json:"strand"`
}

// SignGeneProjection returns the SHA-256 hex of the canonical encoding of a
// gene projection, used as ReleaseGeneIndexEntry.SignatureSha256.
func SignGeneProjection(g GeneProjection) (string, error) {
	return canonical.StableJSONHashHex(g)
}

// ReleaseGeneIndex is the full per-dataset listing of gene coordinates and
// signatures, used by downstream diffing tools without needing sqlite access.
type ReleaseGeneIndex struct {
	SchemaVersion string                  `json:"schema_version"`
	Dataset       string                  `json:"dataset"`
	Entries       []ReleaseGeneIndexEntry `json:"entries"`
}

// ValidateStrict checks the index is sorted and carries non-empty fields.
func (r *ReleaseGeneIndex) ValidateStrict() error {
	if r.SchemaVersion == "" {
		return fmt.Errorf("model: release_gene_index schema_version must not be empty")
	}
	if r.Dataset == "" {
		return fmt.Errorf("model: release_gene_index dataset must not be empty")
	}
	for i, e := range r.Entries {
		if e.GeneID == "" || e.Seqid == "" || e.SignatureSha256 == "" {
			return fmt.Errorf("model: release_gene_index entry %d has an empty field", i)
		}
		if e.End < e.Start {
			return fmt.Errorf("model: release_gene_index entry %d has end < start", i)
		}
		if i > 0 && r.Entries[i-1].GeneID >= e.GeneID {
			return fmt.Errorf("model: release_gene_index entries not strictly sorted at %d", i)
		}
	}
	return nil
}

// DecodeReleaseGeneIndex strictly parses an on-disk release_gene_index.json.
func DecodeReleaseGeneIndex(raw []byte) (*ReleaseGeneIndex, error) {
	var r ReleaseGeneIndex
	if err := strictDecode(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// EncodeReleaseGeneIndex serializes a release gene index with canonical key
// ordering.
func EncodeReleaseGeneIndex(r *ReleaseGeneIndex) ([]byte, error) {
	return canonical.StableJSONBytes(r)
}
