package model

import (
	"sort"

	"github.com/bijux/atlas/internal/canonical"
)

// IngestAnomalyReport records data-quality issues found during ingest that
// do not abort the run under the configured strictness mode (§4.2.3).
type IngestAnomalyReport struct {
	MissingParents   []string `json:"missing_parents"`
	UnknownContigs   []string `json:"unknown_contigs"`
	OverlappingIDs   []string `json:"overlapping_ids"`
	DuplicateGeneIDs []string `json:"duplicate_gene_ids"`
}

// NewIngestAnomalyReport returns a report with every list empty (never nil),
// so EncodeAnomalyReport always emits `[]` rather than `null`.
func NewIngestAnomalyReport() *IngestAnomalyReport {
	return &IngestAnomalyReport{
		MissingParents:   []string{},
		UnknownContigs:   []string{},
		OverlappingIDs:   []string{},
		DuplicateGeneIDs: []string{},
	}
}

// IsEmpty reports whether no anomalies were recorded.
func (r *IngestAnomalyReport) IsEmpty() bool {
	return len(r.MissingParents) == 0 && len(r.UnknownContigs) == 0 &&
		len(r.OverlappingIDs) == 0 && len(r.DuplicateGeneIDs) == 0
}

// Finalize sorts and deduplicates every list in place, matching the
// invariant that anomaly reports hold sorted identifier lists.
func (r *IngestAnomalyReport) Finalize() {
	r.MissingParents = sortUnique(r.MissingParents)
	r.UnknownContigs = sortUnique(r.UnknownContigs)
	r.OverlappingIDs = sortUnique(r.OverlappingIDs)
	r.DuplicateGeneIDs = sortUnique(r.DuplicateGeneIDs)
}

func sortUnique(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	cp := append([]string(nil), in...)
	sort.Strings(cp)
	out := cp[:0]
	var prev string
	for i, v := range cp {
		if i == 0 || v != prev {
			out = append(out, v)
		}
		prev = v
	}
	return out
}

// DecodeAnomalyReport strictly parses an on-disk anomaly_report.json.
func DecodeAnomalyReport(raw []byte) (*IngestAnomalyReport, error) {
	var r IngestAnomalyReport
	if err := strictDecode(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// EncodeAnomalyReport serializes an anomaly report with canonical key
// ordering.
func EncodeAnomalyReport(r *IngestAnomalyReport) ([]byte, error) {
	return canonical.StableJSONBytes(r)
}
