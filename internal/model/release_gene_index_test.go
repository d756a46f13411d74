package model

import "testing"

func TestReleaseGeneIndexValidateStrictRequiresSortedEntries(t *testing.T) {
	r := &ReleaseGeneIndex{
		SchemaVersion: "1",
		Dataset:       "109/homo_sapiens/GRCh38",
		Entries: []ReleaseGeneIndexEntry{
			entry("g1", "chr1", 1, 100, "sig-a"),
			entry("g2", "chr1", 200, 300, "sig-b"),
		},
	}
	if err := r.ValidateStrict(); err != nil {
		t.Fatalf("expected sorted entries to validate, got: %v", err)
	}

	r.Entries[0], r.Entries[1] = r.Entries[1], r.Entries[0]
	if err := r.ValidateStrict(); err == nil {
		t.Fatal("expected unsorted entries to fail validation")
	}
}

func TestSignGeneProjectionIsDeterministic(t *testing.T) {
	g := GeneProjection{GeneID: "g1", Name: "TP53", Biotype: "protein_coding", Seqid: "chr17", Start: 1, End: 100, Strand: "+"}
	a, err := SignGeneProjection(g)
	if err != nil {
		t.Fatalf("SignGeneProjection: %v", err)
	}
	b, err := SignGeneProjection(g)
	if err != nil {
		t.Fatalf("SignGeneProjection: %v", err)
	}
	if a != b {
		t.Fatalf("expected deterministic signature, got %q vs %q", a, b)
	}
}
