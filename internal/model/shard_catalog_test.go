package model

import "testing"

func TestShardCatalogValidateStrictRejectsRegionGrid(t *testing.T) {
	s := &ShardCatalog{
		Dataset: "109/homo_sapiens/GRCh38",
		Plan:    ShardingPlanRegionGrid,
		Shards:  []ShardEntry{},
	}
	if err := s.ValidateStrict(); err == nil {
		t.Fatal("expected region_grid plan to be rejected as reserved")
	}
}

func TestShardCatalogValidateStrictRejectsOverlappingSeqids(t *testing.T) {
	s := &ShardCatalog{
		Dataset: "109/homo_sapiens/GRCh38",
		Plan:    ShardingPlanContig,
		Shards: []ShardEntry{
			{ShardID: "shard-1", Seqids: []string{"chr1", "chr2"}, SqlitePath: "s1.sqlite", ContentHash: "h1"},
			{ShardID: "shard-2", Seqids: []string{"chr2", "chr3"}, SqlitePath: "s2.sqlite", ContentHash: "h2"},
		},
	}
	if err := s.ValidateStrict(); err == nil {
		t.Fatal("expected overlapping seqid sets to be rejected")
	}
}

func TestShardCatalogShardForSeqid(t *testing.T) {
	s := &ShardCatalog{
		Dataset: "109/homo_sapiens/GRCh38",
		Plan:    ShardingPlanContig,
		Shards: []ShardEntry{
			{ShardID: "shard-1", Seqids: []string{"chr1"}, SqlitePath: "s1.sqlite", ContentHash: "h1"},
			{ShardID: "shard-2", Seqids: []string{"chr2"}, SqlitePath: "s2.sqlite", ContentHash: "h2"},
		},
	}
	if err := s.ValidateStrict(); err != nil {
		t.Fatalf("expected valid catalog, got: %v", err)
	}
	sh, ok := s.ShardForSeqid("chr2")
	if !ok || sh.ShardID != "shard-2" {
		t.Fatalf("expected shard-2 for chr2, got %+v ok=%v", sh, ok)
	}
	if _, ok := s.ShardForSeqid("chrX"); ok {
		t.Fatal("expected no shard for unlisted seqid")
	}
}
