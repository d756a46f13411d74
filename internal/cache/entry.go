package cache

import (
	"database/sql"
	"time"

	"github.com/bijux/atlas/internal/model"
)

// Entry is the cache manager's record of one dataset's on-disk artifact
// (spec §4.4.1): where the manifest and sqlite files live, when they were
// last reverified, and the open connection if any.
type Entry struct {
	Manifest          *model.ArtifactManifest
	ShardCatalog      *model.ShardCatalog
	ContentKey        string
	DiskDir           string
	SqlitePath        string
	ShardSqlitePaths  map[string]string // shard_id -> path
	LastVerifiedAt    time.Time

	db *sql.DB
}
