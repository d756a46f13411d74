package model

import "testing"

func entry(geneID, seqid string, start, end uint64, sig string) ReleaseGeneIndexEntry {
	return ReleaseGeneIndexEntry{GeneID: geneID, Seqid: seqid, Start: start, End: end, SignatureSha256: sig}
}

func TestDiffReleaseGeneIndexDetectsAddedRemovedChanged(t *testing.T) {
	from := &ReleaseGeneIndex{
		SchemaVersion: "1",
		Dataset:       "109/homo_sapiens/GRCh38",
		Entries: []ReleaseGeneIndexEntry{
			entry("g1", "chr1", 1, 100, "sig-a"),
			entry("g2", "chr1", 200, 300, "sig-b"),
		},
	}
	to := &ReleaseGeneIndex{
		SchemaVersion: "1",
		Dataset:       "110/homo_sapiens/GRCh38",
		Entries: []ReleaseGeneIndexEntry{
			entry("g1", "chr1", 1, 100, "sig-a-changed"),
			entry("g3", "chr2", 1, 50, "sig-c"),
		},
	}

	records := DiffReleaseGeneIndex(from, to)
	if len(records) != 3 {
		t.Fatalf("expected 3 diff records, got %d: %+v", len(records), records)
	}

	byID := make(map[string]DiffRecord, len(records))
	for _, r := range records {
		byID[r.GeneID] = r
	}

	if r, ok := byID["g1"]; !ok || r.Status != DiffChanged {
		t.Fatalf("expected g1 changed, got %+v ok=%v", r, ok)
	}
	if r, ok := byID["g2"]; !ok || r.Status != DiffRemoved {
		t.Fatalf("expected g2 removed, got %+v ok=%v", r, ok)
	}
	if r, ok := byID["g3"]; !ok || r.Status != DiffAdded {
		t.Fatalf("expected g3 added, got %+v ok=%v", r, ok)
	}
}

func TestDiffReleaseGeneIndexNoChangeProducesNoRecords(t *testing.T) {
	idx := &ReleaseGeneIndex{
		SchemaVersion: "1",
		Dataset:       "109/homo_sapiens/GRCh38",
		Entries:       []ReleaseGeneIndexEntry{entry("g1", "chr1", 1, 100, "sig-a")},
	}
	records := DiffReleaseGeneIndex(idx, idx)
	if len(records) != 0 {
		t.Fatalf("expected no diff records for identical indices, got %+v", records)
	}
}
