package model

import "testing"

func TestIngestAnomalyReportFinalizeSortsAndDedupes(t *testing.T) {
	r := &IngestAnomalyReport{
		MissingParents:   []string{"g2", "g1", "g1"},
		UnknownContigs:   []string{"chrZ", "chrA"},
		OverlappingIDs:   nil,
		DuplicateGeneIDs: []string{"g3"},
	}
	r.Finalize()

	if got := r.MissingParents; len(got) != 2 || got[0] != "g1" || got[1] != "g2" {
		t.Fatalf("unexpected MissingParents: %+v", got)
	}
	if got := r.UnknownContigs; len(got) != 2 || got[0] != "chrA" || got[1] != "chrZ" {
		t.Fatalf("unexpected UnknownContigs: %+v", got)
	}
	if r.OverlappingIDs == nil || len(r.OverlappingIDs) != 0 {
		t.Fatalf("expected OverlappingIDs to become an empty non-nil slice, got %+v", r.OverlappingIDs)
	}
}

func TestIngestAnomalyReportIsEmpty(t *testing.T) {
	r := NewIngestAnomalyReport()
	if !r.IsEmpty() {
		t.Fatal("expected freshly constructed report to be empty")
	}
	r.DuplicateGeneIDs = append(r.DuplicateGeneIDs, "g1")
	if r.IsEmpty() {
		t.Fatal("expected report with an entry to be non-empty")
	}
}

func TestDecodeAnomalyReportRejectsUnknownFields(t *testing.T) {
	raw := []byte(`{"missing_parents":[],"unknown_contigs":[],"overlapping_ids":[],"duplicate_gene_ids":[],"extra":1}`)
	if _, err := DecodeAnomalyReport(raw); err == nil {
		t.Fatal("expected strict decode to reject unknown field")
	}
}
