package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/atomicfile"
	"github.com/bijux/atlas/internal/canonical"
	"github.com/bijux/atlas/internal/model"
)

// QCReport is a small human-facing summary written alongside the manifest;
// unlike IngestAnomalyReport it is informational only and never strict-decoded
// back by the core.
type QCReport struct {
	GeneCount          int            `json:"gene_count"`
	TranscriptCount    int            `json:"transcript_count"`
	ContigDistribution map[string]int `json:"contig_distribution"`
	BiotypeDistribution map[string]int `json:"biotype_distribution"`
}

// BuildManifest computes input hashes and assembles a signed manifest for a
// completed (non report-only) ingest run.
func BuildManifest(datasetCanonical string, gff3, fasta, fai []byte, sqlitePath string, extract *Extract, now time.Time) (*model.ArtifactManifest, error) {
	sqliteBytes, err := os.ReadFile(sqlitePath)
	if err != nil {
		return nil, atlaserr.NewIngestError("reading sqlite artifact for hashing", err)
	}

	m := &model.ArtifactManifest{
		ManifestVersion: "1",
		DBSchemaVersion: dbSchemaVersion,
		Dataset:         datasetCanonical,
		Checksums: model.ArtifactChecksums{
			Gff3Sha256:   canonical.SHA256Hex(gff3),
			FastaSha256:  canonical.SHA256Hex(fasta),
			FaiSha256:    canonical.SHA256Hex(fai),
			SqliteSha256: canonical.SHA256Hex(sqliteBytes),
		},
		Stats: model.ManifestStats{
			GeneCount:       len(extract.Genes),
			TranscriptCount: len(extract.Transcripts),
			ContigCount:     len(extract.ContigDistribution),
		},
		InputHashes: map[string]string{
			"gff3":  canonical.SHA256Hex(gff3),
			"fasta": canonical.SHA256Hex(fasta),
			"fai":   canonical.SHA256Hex(fai),
		},
		ToolchainHash:        canonical.SHA256Hex([]byte("atlas-ingest/"+dbSchemaVersion)),
		DBHash:               canonical.SHA256Hex(sqliteBytes),
		DerivedColumnOrigins: map[string]string{"name_normalized": "lowercase(nfkc(name))"},
		CreatedAt:            now,
	}
	if err := m.Sign(); err != nil {
		return nil, atlaserr.NewIngestError("signing manifest", err)
	}
	return m, nil
}

// BuildReportOnlyManifest builds the degenerate manifest produced by
// report-only runs (spec §4.2.7): db_schema_version = "report-only", empty
// checksums, no sqlite artifact.
func BuildReportOnlyManifest(datasetCanonical string, extract *Extract, now time.Time) (*model.ArtifactManifest, error) {
	m := &model.ArtifactManifest{
		ManifestVersion: "1",
		DBSchemaVersion: "report-only",
		Dataset:         datasetCanonical,
		Checksums:       model.ArtifactChecksums{Gff3Sha256: zeroHash(), FastaSha256: zeroHash(), FaiSha256: zeroHash(), SqliteSha256: zeroHash()},
		Stats: model.ManifestStats{
			GeneCount:       len(extract.Genes),
			TranscriptCount: len(extract.Transcripts),
			ContigCount:     len(extract.ContigDistribution),
		},
		ReportOnly: true,
		CreatedAt:  now,
	}
	if err := m.Sign(); err != nil {
		return nil, atlaserr.NewIngestError("signing report-only manifest", err)
	}
	return m, nil
}

func zeroHash() string {
	return canonical.SHA256Hex(nil)
}

// WriteManifestAndReports atomically writes manifest.json, anomaly_report.json,
// and qc_report.json under derivedDir.
func WriteManifestAndReports(derivedDir string, m *model.ArtifactManifest, extract *Extract) error {
	manifestBytes, err := model.EncodeManifest(m)
	if err != nil {
		return atlaserr.NewIngestError("encoding manifest", err)
	}
	if err := atomicfile.Write(filepath.Join(derivedDir, "manifest.json"), manifestBytes, 0o644); err != nil {
		return atlaserr.NewIngestError("writing manifest.json", err)
	}

	anomalyBytes, err := model.EncodeAnomalyReport(extract.Anomalies)
	if err != nil {
		return atlaserr.NewIngestError("encoding anomaly report", err)
	}
	if err := atomicfile.Write(filepath.Join(derivedDir, "anomaly_report.json"), anomalyBytes, 0o644); err != nil {
		return atlaserr.NewIngestError("writing anomaly_report.json", err)
	}

	qc := QCReport{
		GeneCount:           len(extract.Genes),
		TranscriptCount:     len(extract.Transcripts),
		ContigDistribution:  extract.ContigDistribution,
		BiotypeDistribution: extract.BiotypeDistribution,
	}
	qcBytes, err := canonical.StableJSONBytes(qc)
	if err != nil {
		return atlaserr.NewIngestError("encoding qc report", err)
	}
	if err := atomicfile.Write(filepath.Join(derivedDir, "qc_report.json"), qcBytes, 0o644); err != nil {
		return atlaserr.NewIngestError("writing qc_report.json", err)
	}
	return nil
}

// BuildReleaseGeneIndex computes one signed entry per gene and returns them
// already sorted (extract.Genes is sorted by coordinate; the index is
// additionally required to be sorted, so this re-sorts by gene_id).
func BuildReleaseGeneIndex(datasetCanonical string, extract *Extract) (*model.ReleaseGeneIndex, error) {
	entries := make([]model.ReleaseGeneIndexEntry, 0, len(extract.Genes))
	for _, g := range extract.Genes {
		sig, err := model.SignGeneProjection(model.GeneProjection{
			GeneID: g.GeneID, Name: g.Name, Biotype: g.Biotype,
			Seqid: g.Seqid, Start: g.Start, End: g.End, Strand: string(g.Strand),
		})
		if err != nil {
			return nil, atlaserr.NewIngestError("signing gene projection for "+g.GeneID, err)
		}
		entries = append(entries, model.ReleaseGeneIndexEntry{
			GeneID: g.GeneID, Seqid: g.Seqid, Start: g.Start, End: g.End, SignatureSha256: sig,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].GeneID < entries[j].GeneID })
	return &model.ReleaseGeneIndex{SchemaVersion: "1", Dataset: datasetCanonical, Entries: entries}, nil
}

// WriteReleaseGeneIndex atomically writes release_gene_index.json under derivedDir.
func WriteReleaseGeneIndex(derivedDir string, idx *model.ReleaseGeneIndex) error {
	raw, err := model.EncodeReleaseGeneIndex(idx)
	if err != nil {
		return atlaserr.NewIngestError("encoding release gene index", err)
	}
	return atomicfile.Write(filepath.Join(derivedDir, "release_gene_index.json"), raw, 0o644)
}
