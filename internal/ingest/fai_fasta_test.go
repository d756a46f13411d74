package ingest

import (
	"strings"
	"testing"
)

func TestReadFaiContigLengths(t *testing.T) {
	input := "chr1\t1000\t6\t80\t81\nchr2\t2000\t1020\t80\t81\n"
	lengths, err := ReadFaiContigLengths(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadFaiContigLengths: %v", err)
	}
	if lengths["chr1"] != 1000 || lengths["chr2"] != 2000 {
		t.Fatalf("unexpected lengths: %+v", lengths)
	}
}

func TestReadFastaContigLengthsCountsNonWhitespace(t *testing.T) {
	input := ">chr1 description\nACGT\nACG\n>chr2\nAC\n"
	lengths, err := ReadFastaContigLengths(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadFastaContigLengths: %v", err)
	}
	if lengths["chr1"] != 7 || lengths["chr2"] != 2 {
		t.Fatalf("unexpected lengths: %+v", lengths)
	}
}

func TestReadFastaContigLengthsRejectsDataBeforeHeader(t *testing.T) {
	input := "ACGT\n>chr1\nACGT\n"
	if _, err := ReadFastaContigLengths(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for sequence data before header")
	}
}

func TestReadFastaContigStatsTracksGCAndN(t *testing.T) {
	input := ">chr1\nGGCCNNAT\n"
	stats, err := ReadFastaContigStats(strings.NewReader(input), true, 1<<20)
	if err != nil {
		t.Fatalf("ReadFastaContigStats: %v", err)
	}
	s := stats["chr1"]
	if s.Length != 8 {
		t.Fatalf("unexpected length: %d", s.Length)
	}
	if s.GCCount != 4 {
		t.Fatalf("unexpected GC count: %d", s.GCCount)
	}
	if s.NCount != 2 {
		t.Fatalf("unexpected N count: %d", s.NCount)
	}
}

func TestReadFastaContigStatsEnforcesMemoryGuardrail(t *testing.T) {
	input := ">chr1\n" + strings.Repeat("A", 100) + "\n"
	if _, err := ReadFastaContigStats(strings.NewReader(input), false, 50); err == nil {
		t.Fatal("expected error when scanned bytes exceed max_total_bases")
	}
}
