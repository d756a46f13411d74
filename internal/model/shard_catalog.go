package model

import (
	"fmt"

	"github.com/bijux/atlas/internal/canonical"
)

// ShardingPlan names the strategy used to split a dataset's sqlite artifact
// into per-shard files. RegionGrid is reserved: no writer constructs one.
type ShardingPlan string

const (
	ShardingPlanContig     ShardingPlan = "contig"
	ShardingPlanRegionGrid ShardingPlan = "region_grid"
)

// ShardEntry is one shard's seqid membership, path, and content address.
type ShardEntry struct {
	ShardID    string   `json:"shard_id"`
	Seqids     []string `json:"seqids"`
	SqlitePath string   `json:"sqlite_path"`
	ContentHash string  `json:"content_hash"`
}

// ShardCatalog lists the shards that together cover a dataset, used by the
// cache manager's shard selection path (§4.5.6).
type ShardCatalog struct {
	Dataset string       `json:"dataset"`
	Plan    ShardingPlan `json:"plan"`
	Shards  []ShardEntry `json:"shards"`
}

// ValidateStrict checks shard ids are unique, seqid sets are pairwise
// disjoint, and RegionGrid plans are rejected (reserved, unimplemented).
func (s *ShardCatalog) ValidateStrict() error {
	if s.Dataset == "" {
		return fmt.Errorf("model: shard_catalog dataset must not be empty")
	}
	if s.Plan == ShardingPlanRegionGrid {
		return fmt.Errorf("model: shard_catalog plan %q is reserved and not implemented", s.Plan)
	}
	if s.Plan != ShardingPlanContig {
		return fmt.Errorf("model: shard_catalog has unknown plan %q", s.Plan)
	}
	seenShard := make(map[string]bool, len(s.Shards))
	seenSeqid := make(map[string]string, len(s.Shards))
	for _, sh := range s.Shards {
		if sh.ShardID == "" || sh.SqlitePath == "" || sh.ContentHash == "" {
			return fmt.Errorf("model: shard_catalog entry %q has an empty field", sh.ShardID)
		}
		if seenShard[sh.ShardID] {
			return fmt.Errorf("model: shard_catalog has duplicate shard_id %q", sh.ShardID)
		}
		seenShard[sh.ShardID] = true
		for _, seqid := range sh.Seqids {
			if owner, ok := seenSeqid[seqid]; ok {
				return fmt.Errorf("model: seqid %q claimed by both shard %q and %q", seqid, owner, sh.ShardID)
			}
			seenSeqid[seqid] = sh.ShardID
		}
	}
	return nil
}

// ShardForSeqid returns the shard id covering seqid, if any.
func (s *ShardCatalog) ShardForSeqid(seqid string) (ShardEntry, bool) {
	for _, sh := range s.Shards {
		for _, id := range sh.Seqids {
			if id == seqid {
				return sh, true
			}
		}
	}
	return ShardEntry{}, false
}

// DecodeShardCatalog strictly parses an on-disk shard_catalog.json.
func DecodeShardCatalog(raw []byte) (*ShardCatalog, error) {
	var s ShardCatalog
	if err := strictDecode(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// EncodeShardCatalog serializes a shard catalog with canonical key ordering.
func EncodeShardCatalog(s *ShardCatalog) ([]byte, error) {
	return canonical.StableJSONBytes(s)
}
