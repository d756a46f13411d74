package ingest

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func sampleExtract() *Extract {
	return &Extract{
		Genes: []GeneRow{
			{GeneID: "g1", Name: "TP53", NameNormalized: "tp53", Biotype: "protein_coding", Seqid: "chr1", Start: 1, End: 100, TranscriptCount: 1, ExonCount: 2},
			{GeneID: "g2", Name: "BRCA1", NameNormalized: "brca1", Biotype: "protein_coding", Seqid: "chr2", Start: 1, End: 200, TranscriptCount: 0, ExonCount: 0},
		},
		Transcripts: []TranscriptRow{
			{TranscriptID: "t1", ParentGeneID: "g1", TranscriptType: "mRNA", Biotype: "protein_coding", Seqid: "chr1", Start: 1, End: 90, ExonCount: 2},
		},
		ContigDistribution:  map[string]int{"chr1": 1, "chr2": 1},
		BiotypeDistribution: map[string]int{"protein_coding": 2},
	}
}

func TestWriteRelationalArtifactCreatesRequiredSurface(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gene_summary.sqlite")

	if err := WriteRelationalArtifact(path, sampleExtract()); err != nil {
		t.Fatalf("WriteRelationalArtifact: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening written artifact: %v", err)
	}
	defer db.Close()

	var geneCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM gene_summary`).Scan(&geneCount); err != nil {
		t.Fatalf("counting genes: %v", err)
	}
	if geneCount != 2 {
		t.Fatalf("expected 2 genes, got %d", geneCount)
	}

	var rtreeCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM gene_summary_rtree`).Scan(&rtreeCount); err != nil {
		t.Fatalf("counting rtree rows: %v", err)
	}
	if rtreeCount != geneCount {
		t.Fatalf("expected rtree row per gene, got %d rtree rows for %d genes", rtreeCount, geneCount)
	}

	requiredIndexes := []string{
		"idx_gene_summary_gene_id", "idx_gene_summary_name", "idx_gene_summary_name_normalized",
		"idx_gene_summary_biotype", "idx_gene_summary_region", "idx_gene_summary_cover_lookup",
		"idx_gene_summary_cover_region",
	}
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='index'`)
	if err != nil {
		t.Fatalf("listing indexes: %v", err)
	}
	defer rows.Close()
	found := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scanning index name: %v", err)
		}
		found[name] = true
	}
	for _, idx := range requiredIndexes {
		if !found[idx] {
			t.Errorf("missing required index %s", idx)
		}
	}

	var schemaVersion string
	if err := db.QueryRow(`SELECT v FROM atlas_meta WHERE k='schema_version'`).Scan(&schemaVersion); err != nil {
		t.Fatalf("reading schema_version: %v", err)
	}
	if schemaVersion != dbSchemaVersion {
		t.Fatalf("unexpected schema_version: %q", schemaVersion)
	}
}

func TestWriteRelationalArtifactRejectsEmptyGeneSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gene_summary.sqlite")
	empty := &Extract{ContigDistribution: map[string]int{}, BiotypeDistribution: map[string]int{}}
	if err := WriteRelationalArtifact(path, empty); err == nil {
		t.Fatal("expected error for an artifact with zero genes")
	}
}

func TestSqliteFileBeginsWithMagicHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gene_summary.sqlite")
	if err := WriteRelationalArtifact(path, sampleExtract()); err != nil {
		t.Fatalf("WriteRelationalArtifact: %v", err)
	}
	header := make([]byte, 16)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := f.Read(header); err != nil {
		t.Fatalf("read header: %v", err)
	}
	if !strings.HasPrefix(string(header), "SQLite format 3\x00") {
		t.Fatalf("unexpected sqlite header: %q", header)
	}
}
