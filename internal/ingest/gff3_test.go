package ingest

import (
	"io"
	"strings"
	"testing"
)

func TestGFF3ParserBasicRow(t *testing.T) {
	input := "##gff-version 3\n" +
		"\n" +
		"chr1\tensembl\tgene\t1\t100\t.\t+\t.\tID=gene1;Name=TP53;biotype=protein_coding\n"
	p := NewGFF3Parser(strings.NewReader(input))
	f, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Seqid != "chr1" || f.Type != "gene" || f.Start != 1 || f.End != 100 {
		t.Fatalf("unexpected feature: %+v", f)
	}
	if f.Attributes["ID"] != "gene1" || f.Attributes["Name"] != "TP53" {
		t.Fatalf("unexpected attributes: %+v", f.Attributes)
	}
	if _, err := p.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestGFF3ParserRejectsStartGreaterThanEnd(t *testing.T) {
	input := "chr1\tensembl\tgene\t200\t100\t.\t+\t.\tID=gene1\n"
	p := NewGFF3Parser(strings.NewReader(input))
	if _, err := p.Next(); err == nil {
		t.Fatal("expected error for end < start")
	}
}

func TestGFF3ParserRejectsWrongColumnCount(t *testing.T) {
	input := "chr1\tensembl\tgene\t1\t100\n"
	p := NewGFF3Parser(strings.NewReader(input))
	if _, err := p.Next(); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestGFF3ParserRejectsOversizedLine(t *testing.T) {
	huge := strings.Repeat("x", maxGFF3LineBytes+10)
	input := "chr1\tensembl\tgene\t1\t100\t.\t+\t.\tID=" + huge + "\n"
	p := NewGFF3Parser(strings.NewReader(input))
	if _, err := p.Next(); err == nil {
		t.Fatal("expected error for oversized line")
	}
}

func TestGFF3ParserRejectsExcessiveAttributeTokens(t *testing.T) {
	var b strings.Builder
	b.WriteString("chr1\tensembl\tgene\t1\t100\t.\t+\t.\t")
	for i := 0; i < maxAttributeTokens+1; i++ {
		b.WriteString("k=v;")
	}
	b.WriteString("\n")
	p := NewGFF3Parser(strings.NewReader(b.String()))
	if _, err := p.Next(); err == nil {
		t.Fatal("expected error for attribute token cap breach")
	}
}

func TestGFF3ParserDuplicateAttributeKeysLastWriteWins(t *testing.T) {
	input := "chr1\tensembl\tgene\t1\t100\t.\t+\t.\tID=gene1;Note=first;Note=second\n"
	p := NewGFF3Parser(strings.NewReader(input))
	f, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Attributes["Note"] != "second" {
		t.Fatalf("expected last-write-wins, got %q", f.Attributes["Note"])
	}
	if len(f.DuplicateAttributeKeys) != 1 || f.DuplicateAttributeKeys[0] != "Note" {
		t.Fatalf("expected DuplicateAttributeKeys=[Note], got %+v", f.DuplicateAttributeKeys)
	}
}

func TestGFF3ParserPercentDecodesAttributeValues(t *testing.T) {
	input := "chr1\tensembl\tgene\t1\t100\t.\t+\t.\tID=gene1;Note=hello%20world%zz\n"
	p := NewGFF3Parser(strings.NewReader(input))
	f, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Attributes["Note"] != "hello world%zz" {
		t.Fatalf("unexpected decoded value: %q", f.Attributes["Note"])
	}
}

func TestGFF3ParserSkipsCommentsAndBlankLines(t *testing.T) {
	input := "# comment\n\nchr1\tensembl\tgene\t1\t100\t.\t+\t.\tID=gene1\n"
	p := NewGFF3Parser(strings.NewReader(input))
	f, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Attributes["ID"] != "gene1" {
		t.Fatalf("unexpected feature: %+v", f)
	}
}
