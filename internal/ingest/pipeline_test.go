package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bijux/atlas/internal/model"
)

func writeTestInputs(t *testing.T, dir string) JobInputs {
	t.Helper()
	gff3 := "chr1\tensembl\tgene\t1\t1000\t.\t+\t.\tID=gene1;gene_id=gene1;Name=TP53;biotype=protein_coding\n" +
		"chr1\tensembl\tmRNA\t10\t500\t.\t+\t.\tID=t1;Parent=gene1;biotype=protein_coding\n" +
		"chr1\tensembl\texon\t10\t100\t.\t+\t.\tParent=t1\n"
	fasta := ">chr1\n" + repeatACGT(1000) + "\n"
	fai := "chr1\t1000\t6\t80\t81\n"

	gff3Path := filepath.Join(dir, "genes.gff3")
	fastaPath := filepath.Join(dir, "genome.fa")
	faiPath := filepath.Join(dir, "genome.fa.fai")
	if err := os.WriteFile(gff3Path, []byte(gff3), 0o644); err != nil {
		t.Fatalf("write gff3: %v", err)
	}
	if err := os.WriteFile(fastaPath, []byte(fasta), 0o644); err != nil {
		t.Fatalf("write fasta: %v", err)
	}
	if err := os.WriteFile(faiPath, []byte(fai), 0o644); err != nil {
		t.Fatalf("write fai: %v", err)
	}

	return JobInputs{
		DatasetCanonical: "109/homo_sapiens/GRCh38",
		GFF3Path:         gff3Path,
		FastaPath:        fastaPath,
		FaiPath:          faiPath,
	}
}

func repeatACGT(n int) string {
	const unit = "ACGT"
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, unit...)
	}
	return string(out[:n])
}

func TestRunReportOnlyProducesManifestWithoutSqliteArtifact(t *testing.T) {
	dir := t.TempDir()
	inputs := writeTestInputs(t, dir)
	derivedDir := filepath.Join(dir, "derived")
	if err := os.MkdirAll(derivedDir, 0o755); err != nil {
		t.Fatalf("mkdir derived: %v", err)
	}

	result, err := Run(inputs, JobOptions{Policies: DefaultNormalizationPolicies(), ReportOnly: true, Now: time.Unix(0, 0).UTC()}, derivedDir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.SqlitePath != "" {
		t.Fatalf("expected no sqlite path in report-only mode, got %q", result.SqlitePath)
	}
	if result.Manifest.DBSchemaVersion != "report-only" {
		t.Fatalf("expected db_schema_version=report-only, got %q", result.Manifest.DBSchemaVersion)
	}
	if !result.Manifest.ReportOnly {
		t.Fatal("expected ReportOnly=true")
	}
	if result.Extract.Genes[0].GeneID != "gene1" {
		t.Fatalf("unexpected extracted genes: %+v", result.Extract.Genes)
	}

	manifestPath := filepath.Join(derivedDir, "manifest.json")
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("reading manifest.json: %v", err)
	}
	decoded, err := model.DecodeManifest(raw)
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	if decoded.ArtifactHash != result.Manifest.ArtifactHash {
		t.Fatalf("round-tripped manifest hash mismatch")
	}
}

func TestRunFullIngestWritesArtifactAndIndex(t *testing.T) {
	dir := t.TempDir()
	inputs := writeTestInputs(t, dir)
	derivedDir := filepath.Join(dir, "derived")
	if err := os.MkdirAll(derivedDir, 0o755); err != nil {
		t.Fatalf("mkdir derived: %v", err)
	}

	result, err := Run(inputs, JobOptions{Policies: DefaultNormalizationPolicies(), Now: time.Unix(0, 0).UTC()}, derivedDir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.SqlitePath == "" {
		t.Fatal("expected a non-empty sqlite path")
	}
	if _, err := os.Stat(result.SqlitePath); err != nil {
		t.Fatalf("expected sqlite artifact on disk: %v", err)
	}
	if len(result.ReleaseGeneIndex.Entries) != 1 {
		t.Fatalf("expected 1 release gene index entry, got %d", len(result.ReleaseGeneIndex.Entries))
	}
	if err := result.Manifest.VerifyArtifactHash(); err != nil {
		t.Fatalf("VerifyArtifactHash: %v", err)
	}
}
