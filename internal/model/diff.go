package model

import "sort"

// DiffStatus classifies how a gene changed between two releases of the same
// species/assembly.
type DiffStatus string

const (
	DiffAdded   DiffStatus = "added"
	DiffRemoved DiffStatus = "removed"
	DiffChanged DiffStatus = "changed"
)

// DiffRecord describes one gene's change. Seqid/Start/End are populated for
// Added and Changed records (the "to" coordinates) and omitted for Removed.
type DiffRecord struct {
	GeneID string     `json:"gene_id"`
	Status DiffStatus `json:"status"`
	Seqid  *string    `json:"seqid,omitempty"`
	Start  *uint64    `json:"start,omitempty"`
	End    *uint64    `json:"end,omitempty"`
}

// DiffReleaseGeneIndex compares two release gene indices for the same
// species/assembly and returns, in gene_id order, every added, removed, and
// changed gene. A gene is Changed when its signature differs between
// releases; identical signatures produce no record. This is a pure function
// over its two inputs: no I/O, no clock, no hidden state.
func DiffReleaseGeneIndex(from, to *ReleaseGeneIndex) []DiffRecord {
	fromByID := make(map[string]ReleaseGeneIndexEntry, len(from.Entries))
	for _, e := range from.Entries {
		fromByID[e.GeneID] = e
	}
	toByID := make(map[string]ReleaseGeneIndexEntry, len(to.Entries))
	for _, e := range to.Entries {
		toByID[e.GeneID] = e
	}

	ids := make(map[string]struct{}, len(fromByID)+len(toByID))
	for id := range fromByID {
		ids[id] = struct{}{}
	}
	for id := range toByID {
		ids[id] = struct{}{}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	records := make([]DiffRecord, 0, len(sorted))
	for _, id := range sorted {
		oldE, hadOld := fromByID[id]
		newE, hasNew := toByID[id]
		switch {
		case !hadOld && hasNew:
			records = append(records, toRecord(id, DiffAdded, newE))
		case hadOld && !hasNew:
			records = append(records, DiffRecord{GeneID: id, Status: DiffRemoved})
		case oldE.SignatureSha256 != newE.SignatureSha256:
			records = append(records, toRecord(id, DiffChanged, newE))
		}
	}
	return records
}

func toRecord(geneID string, status DiffStatus, e ReleaseGeneIndexEntry) DiffRecord {
	seqid := e.Seqid
	start := e.Start
	end := e.End
	return DiffRecord{GeneID: geneID, Status: status, Seqid: &seqid, Start: &start, End: &end}
}
