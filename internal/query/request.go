package query

import (
	"github.com/bijux/atlas/internal/ids"
)

// GeneFilter narrows a gene query to zero or more of the supported
// predicates. A nil field means "not filtered on this dimension". At least
// one non-nil field is required unless the request sets AllowFullScan.
type GeneFilter struct {
	GeneID     *string
	Name       *string
	NamePrefix *string
	Biotype    *string
	Region     *ids.Region
}

// hasAny reports whether any predicate is set.
func (f GeneFilter) hasAny() bool {
	return f.GeneID != nil || f.Name != nil || f.NamePrefix != nil || f.Biotype != nil || f.Region != nil
}

// GeneQueryRequest is the planner's full input (spec §4.5.1).
type GeneQueryRequest struct {
	Fields        GeneFields
	Filter        GeneFilter
	Limit         int
	Cursor        string
	DatasetKey    string
	AllowFullScan bool
}

// Classification is the cost tier the planner assigns a validated request.
type Classification string

const (
	Cheap  Classification = "Cheap"
	Medium Classification = "Medium"
	Heavy  Classification = "Heavy"
)

const (
	baseCostCheap  int64 = 20
	baseCostMedium int64 = 200
	baseCostHeavy  int64 = 1200
)

// Classify implements spec §4.5.2's classification rule: any gene_id filter
// is Cheap; a region or prefix filter is Heavy; everything else is Medium.
func Classify(f GeneFilter) Classification {
	if f.GeneID != nil {
		return Cheap
	}
	if f.Region != nil || f.NamePrefix != nil {
		return Heavy
	}
	return Medium
}

// EstimateCost implements the cost formula of spec §4.5.2:
// base{Cheap:20,Medium:200,Heavy:1200} + limit + region_span/10_000.
func EstimateCost(class Classification, limit int, f GeneFilter) int64 {
	var base int64
	switch class {
	case Cheap:
		base = baseCostCheap
	case Heavy:
		base = baseCostHeavy
	default:
		base = baseCostMedium
	}
	cost := base + int64(limit)
	if f.Region != nil {
		span := f.Region.End - f.Region.Start
		cost += int64(span / 10_000)
	}
	return cost
}
