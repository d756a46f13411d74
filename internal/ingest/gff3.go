// Package ingest turns a (gff3, fasta, fai) triple into a normalized gene
// atlas: streaming GFF3/FASTA parsing, declarative normalization policies,
// a relational SQLite writer, and the manifest/report/index writers that
// publish the result (spec §4.2).
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bijux/atlas/internal/atlaserr"
)

// maxGFF3LineBytes bounds a single GFF3 line; rows longer than this are a
// hard parse failure rather than a silent truncation.
const maxGFF3LineBytes = 1 << 20 // 1 MiB

// maxAttributeTokens bounds the number of `;`-separated tokens in column 9;
// empty tokens, such as the one after a trailing `;`, count toward it.
const maxAttributeTokens = 4096

// Strand mirrors the GFF3 strand column.
type Strand string

const (
	StrandPlus    Strand = "+"
	StrandMinus   Strand = "-"
	StrandUnknown Strand = "."
)

// Feature is one parsed, unnormalized GFF3 record.
type Feature struct {
	Seqid      string
	Source     string
	Type       string
	Start      uint64
	End        uint64
	Score      string
	Strand     Strand
	Phase      string
	Attributes map[string]string
	// DuplicateAttributeKeys lists attribute keys that appeared more than
	// once on this row; Attributes holds the last value for each.
	DuplicateAttributeKeys []string
}

// GFF3Parser streams features out of r one line at a time.
type GFF3Parser struct {
	scanner *bufio.Scanner
	line    int
}

// NewGFF3Parser wraps r with a line scanner sized for the 1 MiB line cap.
func NewGFF3Parser(r io.Reader) *GFF3Parser {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxGFF3LineBytes+1)
	return &GFF3Parser{scanner: sc}
}

// Next returns the next feature, or io.EOF when the stream is exhausted.
// Comment lines ("#") and blank lines are skipped transparently.
func (p *GFF3Parser) Next() (*Feature, error) {
	for p.scanner.Scan() {
		p.line++
		raw := p.scanner.Text()
		if len(raw) > maxGFF3LineBytes {
			return nil, atlaserr.NewIngestError(
				fmt.Sprintf("line %d exceeds %d byte cap", p.line, maxGFF3LineBytes), nil)
		}
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		return p.parseLine(raw)
	}
	if err := p.scanner.Err(); err != nil {
		return nil, atlaserr.NewIngestError(fmt.Sprintf("reading line %d", p.line+1), err)
	}
	return nil, io.EOF
}

func (p *GFF3Parser) parseLine(raw string) (*Feature, error) {
	cols := strings.Split(raw, "\t")
	if len(cols) != 9 {
		return nil, atlaserr.NewIngestError(
			fmt.Sprintf("line %d: expected 9 tab-separated columns, got %d", p.line, len(cols)), nil)
	}

	start, err := strconv.ParseUint(cols[3], 10, 64)
	if err != nil {
		return nil, atlaserr.NewIngestError(fmt.Sprintf("line %d: invalid start %q", p.line, cols[3]), err)
	}
	end, err := strconv.ParseUint(cols[4], 10, 64)
	if err != nil {
		return nil, atlaserr.NewIngestError(fmt.Sprintf("line %d: invalid end %q", p.line, cols[4]), err)
	}
	if start < 1 {
		return nil, atlaserr.NewIngestError(fmt.Sprintf("line %d: start must be >= 1", p.line), nil)
	}
	if end < start {
		return nil, atlaserr.NewIngestError(fmt.Sprintf("line %d: end must be >= start", p.line), nil)
	}

	attrs, dupKeys, err := parseAttributes(cols[8])
	if err != nil {
		return nil, atlaserr.NewIngestError(fmt.Sprintf("line %d: %v", p.line, err), err)
	}

	return &Feature{
		Seqid:                  cols[0],
		Source:                 cols[1],
		Type:                   cols[2],
		Start:                  start,
		End:                    end,
		Score:                  cols[5],
		Strand:                 Strand(cols[6]),
		Phase:                  cols[7],
		Attributes:             attrs,
		DuplicateAttributeKeys: dupKeys,
	}, nil
}

// parseAttributes splits column 9 into key/value pairs: split on ';', then
// key/value by the first '='. Values are trimmed, unquoted if wrapped in a
// single pair of double quotes, then percent-decoded. Duplicate keys are
// last-write-wins with the key recorded separately.
func parseAttributes(col string) (map[string]string, []string, error) {
	if col == "" || col == "." {
		return map[string]string{}, nil, nil
	}
	tokens := strings.Split(col, ";")
	if len(tokens) > maxAttributeTokens {
		return nil, nil, fmt.Errorf("attribute token count %d exceeds cap %d", len(tokens), maxAttributeTokens)
	}

	attrs := make(map[string]string, len(tokens))
	seen := make(map[string]bool, len(tokens))
	var dupKeys []string
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key, value, found := strings.Cut(tok, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = unquote(value)
		value = percentDecode(value)

		if seen[key] {
			dupKeys = append(dupKeys, key)
		}
		seen[key] = true
		attrs[key] = value
	}
	return attrs, dedupeStrings(dupKeys), nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// percentDecode decodes %HH escapes; invalid escapes (not two hex digits)
// pass through byte-for-byte rather than failing the row.
func percentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			hi := hexVal(s[i+1])
			lo := hexVal(s[i+2])
			b.WriteByte(byte(hi<<4 | lo))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
