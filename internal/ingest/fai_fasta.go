package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bijux/atlas/internal/atlaserr"
)

// ReadFaiContigLengths parses a .fai index (tab-separated: name, length, ...)
// into a seqid -> length map.
func ReadFaiContigLengths(r io.Reader) (map[string]uint64, error) {
	lengths := make(map[string]uint64)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxGFF3LineBytes+1)
	line := 0
	for sc.Scan() {
		line++
		row := sc.Text()
		if row == "" {
			continue
		}
		cols := strings.Split(row, "\t")
		if len(cols) < 2 {
			return nil, atlaserr.NewIngestError(fmt.Sprintf("fai line %d: expected at least 2 columns", line), nil)
		}
		length, err := strconv.ParseUint(cols[1], 10, 64)
		if err != nil {
			return nil, atlaserr.NewIngestError(fmt.Sprintf("fai line %d: invalid length %q", line, cols[1]), err)
		}
		lengths[cols[0]] = length
	}
	if err := sc.Err(); err != nil {
		return nil, atlaserr.NewIngestError("reading fai", err)
	}
	return lengths, nil
}

// ReadFastaContigLengths streams a FASTA file, counting non-whitespace bytes
// per contig header (">name ...").
func ReadFastaContigLengths(r io.Reader) (map[string]uint64, error) {
	lengths := make(map[string]uint64)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxGFF3LineBytes+1)

	var current string
	haveHeader := false
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, ">") {
			current = contigNameFromHeader(line)
			haveHeader = true
			if _, ok := lengths[current]; !ok {
				lengths[current] = 0
			}
			continue
		}
		if !haveHeader {
			return nil, atlaserr.NewIngestError("fasta sequence data before any header", nil)
		}
		lengths[current] += countNonWhitespace(line)
	}
	if err := sc.Err(); err != nil {
		return nil, atlaserr.NewIngestError("reading fasta", err)
	}
	return lengths, nil
}

// ContigStats additionally tracks base composition for GC/N fraction
// reporting.
type ContigStats struct {
	Length  uint64
	GCCount uint64
	NCount  uint64
}

// GCFraction returns the fraction of G/C bases, or 0 when Length is 0.
func (s ContigStats) GCFraction() float64 {
	if s.Length == 0 {
		return 0
	}
	return float64(s.GCCount) / float64(s.Length)
}

// NFraction returns the fraction of N bases, or 0 when Length is 0.
func (s ContigStats) NFraction() float64 {
	if s.Length == 0 {
		return 0
	}
	return float64(s.NCount) / float64(s.Length)
}

// ReadFastaContigStats is ReadFastaContigLengths plus GC/N composition
// tracking, bounded by a total-bases memory guardrail: once the number of
// bases scanned across the whole file exceeds maxTotalBases, it fails
// instead of continuing to scan an unbounded input.
func ReadFastaContigStats(r io.Reader, computeFractions bool, maxTotalBases uint64) (map[string]ContigStats, error) {
	stats := make(map[string]ContigStats)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxGFF3LineBytes+1)

	var current string
	haveHeader := false
	var totalScanned uint64

	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, ">") {
			current = contigNameFromHeader(line)
			haveHeader = true
			if _, ok := stats[current]; !ok {
				stats[current] = ContigStats{}
			}
			continue
		}
		if !haveHeader {
			return nil, atlaserr.NewIngestError("fasta sequence data before any header", nil)
		}

		totalScanned += uint64(len(line))
		if totalScanned > maxTotalBases {
			return nil, atlaserr.NewIngestError(
				fmt.Sprintf("fasta scan exceeded max_total_bases=%d", maxTotalBases), nil)
		}

		s := stats[current]
		s.Length += countNonWhitespace(line)
		if computeFractions {
			gc, n := countGCAndN(line)
			s.GCCount += gc
			s.NCount += n
		}
		stats[current] = s
	}
	if err := sc.Err(); err != nil {
		return nil, atlaserr.NewIngestError("reading fasta", err)
	}
	return stats, nil
}

func contigNameFromHeader(header string) string {
	header = strings.TrimPrefix(header, ">")
	if idx := strings.IndexAny(header, " \t"); idx >= 0 {
		return header[:idx]
	}
	return header
}

func countNonWhitespace(line string) uint64 {
	var n uint64
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' && line[i] != '\r' {
			n++
		}
	}
	return n
}

func countGCAndN(line string) (gc, n uint64) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case 'G', 'g', 'C', 'c':
			gc++
		case 'N', 'n':
			n++
		}
	}
	return gc, n
}
