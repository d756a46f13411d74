// Package model holds the catalog, manifest, release gene index, shard
// catalog, and anomaly report shapes written by the ingest pipeline and read
// back by the cache manager and query layer (spec §3.2). Every decode path
// rejects unknown JSON fields: a manifest written by a newer build must
// never be silently misread by an older one.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bijux/atlas/internal/canonical"
)

// ArtifactChecksums are SHA-256 hex digests of the raw input/derived files.
type ArtifactChecksums struct {
	Gff3Sha256   string `json:"gff3_sha256"`
	FastaSha256  string `json:"fasta_sha256"`
	FaiSha256    string `json:"fai_sha256"`
	SqliteSha256 string `json:"sqlite_sha256"`
}

func (c ArtifactChecksums) validate() error {
	for name, v := range map[string]string{
		"gff3_sha256":   c.Gff3Sha256,
		"fasta_sha256":  c.FastaSha256,
		"fai_sha256":    c.FaiSha256,
		"sqlite_sha256": c.SqliteSha256,
	} {
		if len(v) != 64 {
			return fmt.Errorf("model: %s must be a 64-char hex digest, got %d chars", name, len(v))
		}
	}
	return nil
}

// ManifestStats summarizes the counts a query caller can rely on without
// opening the relational artifact.
type ManifestStats struct {
	GeneCount       int `json:"gene_count"`
	TranscriptCount int `json:"transcript_count"`
	ContigCount     int `json:"contig_count"`
}

// ArtifactManifest is the signed, content-addressed description of one
// published dataset's artifact set.
type ArtifactManifest struct {
	ManifestVersion      string            `json:"manifest_version"`
	DBSchemaVersion      string            `json:"db_schema_version"`
	Dataset              string            `json:"dataset"`
	Checksums            ArtifactChecksums `json:"checksums"`
	Stats                ManifestStats     `json:"stats"`
	InputHashes          map[string]string `json:"input_hashes"`
	ToolchainHash        string            `json:"toolchain_hash"`
	DBHash               string            `json:"db_hash"`
	ArtifactHash         string            `json:"artifact_hash"`
	DerivedColumnOrigins map[string]string `json:"derived_column_origins"`
	CreatedAt            time.Time         `json:"created_at"`
	// ReportOnly marks a manifest produced in report-only mode (4.2.7):
	// no sqlite artifact exists and gene_count may legitimately be zero.
	ReportOnly bool `json:"report_only"`
}

// ValidateStrict checks field-level invariants. It does not recompute
// ArtifactHash; callers that need that check should use VerifyArtifactHash.
func (m *ArtifactManifest) ValidateStrict() error {
	if m.ManifestVersion == "" {
		return fmt.Errorf("model: manifest_version must not be empty")
	}
	if m.DBSchemaVersion == "" {
		return fmt.Errorf("model: db_schema_version must not be empty")
	}
	if m.Dataset == "" {
		return fmt.Errorf("model: dataset must not be empty")
	}
	if err := m.Checksums.validate(); err != nil {
		return err
	}
	if !m.ReportOnly && m.Stats.GeneCount <= 0 {
		return fmt.Errorf("model: gene_count must be > 0 for a published manifest")
	}
	if m.Stats.TranscriptCount < 0 || m.Stats.ContigCount < 0 {
		return fmt.Errorf("model: stats counts must not be negative")
	}
	if m.ArtifactHash == "" {
		return fmt.Errorf("model: artifact_hash must not be empty")
	}
	if m.CreatedAt.IsZero() {
		return fmt.Errorf("model: created_at must be set")
	}
	return nil
}

// signingView is the subset of ArtifactManifest that contributes to
// artifact_hash: everything except the hash field itself and created_at.
func (m *ArtifactManifest) signingView() map[string]interface{} {
	return map[string]interface{}{
		"manifest_version":       m.ManifestVersion,
		"db_schema_version":      m.DBSchemaVersion,
		"dataset":                m.Dataset,
		"checksums":              m.Checksums,
		"stats":                  m.Stats,
		"input_hashes":           m.InputHashes,
		"toolchain_hash":         m.ToolchainHash,
		"db_hash":                m.DBHash,
		"derived_column_origins": m.DerivedColumnOrigins,
		"report_only":            m.ReportOnly,
	}
}

// ComputeArtifactHash returns the content address of the manifest's signing
// view: SHA-256 hex of its canonical JSON encoding.
func (m *ArtifactManifest) ComputeArtifactHash() (string, error) {
	return canonical.StableJSONHashHex(m.signingView())
}

// Sign sets ArtifactHash to ComputeArtifactHash's result.
func (m *ArtifactManifest) Sign() error {
	h, err := m.ComputeArtifactHash()
	if err != nil {
		return err
	}
	m.ArtifactHash = h
	return nil
}

// VerifyArtifactHash recomputes the content address and compares it to the
// stored ArtifactHash.
func (m *ArtifactManifest) VerifyArtifactHash() error {
	h, err := m.ComputeArtifactHash()
	if err != nil {
		return err
	}
	if h != m.ArtifactHash {
		return fmt.Errorf("model: artifact_hash mismatch: stored %s computed %s", m.ArtifactHash, h)
	}
	return nil
}

// strictDecode decodes raw into dst, rejecting any field dst does not declare.
func strictDecode(raw []byte, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("model: strict decode: %w", err)
	}
	return nil
}

// DecodeManifest strictly parses an on-disk manifest.json.
func DecodeManifest(raw []byte) (*ArtifactManifest, error) {
	var m ArtifactManifest
	if err := strictDecode(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// EncodeManifest serializes a manifest with canonical key ordering, suitable
// for writing to manifest.json.
func EncodeManifest(m *ArtifactManifest) ([]byte, error) {
	return canonical.StableJSONBytes(m)
}

// ManifestPath returns the on-disk path of a dataset's manifest relative to
// the dataset's derived/ directory.
func ManifestPath() string { return "manifest.json" }

// SqlitePath returns the on-disk path of a dataset's relational artifact
// relative to the dataset's derived/ directory.
func SqlitePath() string { return "gene_summary.sqlite" }
