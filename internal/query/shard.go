package query

import "github.com/bijux/atlas/internal/model"

// SelectShard implements spec §4.5.6: when catalog is present and the
// request has a region filter, route to the shard whose seqids include the
// region's seqid. Otherwise (no catalog, or no region filter) the caller
// should fall back to the monolithic gene_summary.sqlite.
func SelectShard(catalog *model.ShardCatalog, f GeneFilter) (model.ShardEntry, bool) {
	if catalog == nil || f.Region == nil {
		return model.ShardEntry{}, false
	}
	return catalog.ShardForSeqid(f.Region.Seqid)
}
