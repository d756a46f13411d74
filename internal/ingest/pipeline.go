package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v2"

	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/atlaslog"
	"github.com/bijux/atlas/internal/atomicfile"
	"github.com/bijux/atlas/internal/canonical"
	"github.com/bijux/atlas/internal/model"
)

// JobInputs names the raw source files for one ingest run.
type JobInputs struct {
	DatasetCanonical string // "release/species/assembly"
	GFF3Path         string
	FastaPath        string
	FaiPath          string
}

// JobOptions controls optional behavior of the pipeline.
type JobOptions struct {
	Policies      NormalizationPolicies
	ReportOnly    bool
	ShardByContig bool
	ShowProgress  bool
	Now           time.Time

	// WriteDebugStream writes normalized_features.jsonl.zst alongside the
	// artifact (spec §4.2.5), for operators diagnosing normalization drift.
	WriteDebugStream bool
	// ReplayMode re-reads the just-written debug stream and fails the run
	// if its row counts disagree with the in-memory Extract. Only takes
	// effect when WriteDebugStream is also set.
	ReplayMode bool
}

// JobResult is everything the pipeline produced, ready to publish.
type JobResult struct {
	Manifest         *model.ArtifactManifest
	Extract          *Extract
	ReleaseGeneIndex *model.ReleaseGeneIndex
	ShardCatalog     *model.ShardCatalog // nil unless ShardByContig was requested
	SqlitePath       string              // empty in report-only mode
}

// Run executes the full ingest pipeline (spec §4.2): parse, normalize,
// (optionally) write the relational artifact and shards, sign the manifest,
// write reports, and build the release gene index. It fails fast on the
// first error. Files written through atomicfile.Write are never exposed
// half-written; the sqlite artifact and shards are written in place, so a
// failed run can leave them behind in derivedDir.
func Run(inputs JobInputs, opts JobOptions, derivedDir string, logger *atlaslog.Logger) (*JobResult, error) {
	if logger == nil {
		logger = atlaslog.Default()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	logger.Infof("ingest: parsing gff3 %s", inputs.GFF3Path)
	extract, err := parseAndExtract(inputs.GFF3Path, opts.Policies, opts.ShowProgress)
	if err != nil {
		return nil, err
	}

	logger.Infof("ingest: loaded %d genes, %d transcripts, %d exons",
		len(extract.Genes), len(extract.Transcripts), len(extract.Exons))

	if opts.ReportOnly {
		manifest, err := BuildReportOnlyManifest(inputs.DatasetCanonical, extract, now)
		if err != nil {
			return nil, err
		}
		if err := WriteManifestAndReports(derivedDir, manifest, extract); err != nil {
			return nil, err
		}
		idx, err := BuildReleaseGeneIndex(inputs.DatasetCanonical, extract)
		if err != nil {
			return nil, err
		}
		if err := WriteReleaseGeneIndex(derivedDir, idx); err != nil {
			return nil, err
		}
		if err := maybeWriteDebugStream(derivedDir, extract, opts, logger); err != nil {
			return nil, err
		}
		return &JobResult{Manifest: manifest, Extract: extract, ReleaseGeneIndex: idx}, nil
	}

	sqlitePath := filepath.Join(derivedDir, model.SqlitePath())
	logger.Infof("ingest: writing relational artifact %s", sqlitePath)
	if err := WriteRelationalArtifact(sqlitePath, extract); err != nil {
		return nil, err
	}

	gff3Bytes, err := os.ReadFile(inputs.GFF3Path)
	if err != nil {
		return nil, atlaserr.NewIngestError("reading gff3 for hashing", err)
	}
	fastaBytes, err := os.ReadFile(inputs.FastaPath)
	if err != nil {
		return nil, atlaserr.NewIngestError("reading fasta for hashing", err)
	}
	faiBytes, err := os.ReadFile(inputs.FaiPath)
	if err != nil {
		return nil, atlaserr.NewIngestError("reading fai for hashing", err)
	}

	manifest, err := BuildManifest(inputs.DatasetCanonical, gff3Bytes, fastaBytes, faiBytes, sqlitePath, extract, now)
	if err != nil {
		return nil, err
	}
	if err := manifest.ValidateStrict(); err != nil {
		return nil, atlaserr.NewIngestError("manifest failed strict validation", err)
	}
	if err := WriteManifestAndReports(derivedDir, manifest, extract); err != nil {
		return nil, err
	}

	idx, err := BuildReleaseGeneIndex(inputs.DatasetCanonical, extract)
	if err != nil {
		return nil, err
	}
	if err := idx.ValidateStrict(); err != nil {
		return nil, atlaserr.NewIngestError("release gene index failed strict validation", err)
	}
	if err := WriteReleaseGeneIndex(derivedDir, idx); err != nil {
		return nil, err
	}

	if err := maybeWriteDebugStream(derivedDir, extract, opts, logger); err != nil {
		return nil, err
	}

	result := &JobResult{Manifest: manifest, Extract: extract, ReleaseGeneIndex: idx, SqlitePath: sqlitePath}

	if opts.ShardByContig {
		logger.Infof("ingest: writing per-contig shards")
		shardCatalog, err := WriteContigShards(derivedDir, inputs.DatasetCanonical, extract)
		if err != nil {
			return nil, err
		}
		result.ShardCatalog = shardCatalog
	}

	return result, nil
}

func maybeWriteDebugStream(derivedDir string, extract *Extract, opts JobOptions, logger *atlaslog.Logger) error {
	if !opts.WriteDebugStream {
		return nil
	}
	logger.Infof("ingest: writing %s", NormalizedFeaturesDebugStreamName)
	if err := WriteNormalizedFeaturesDebugStream(derivedDir, extract); err != nil {
		return err
	}
	if opts.ReplayMode {
		if err := AssertReplayMatchesExtract(derivedDir, extract); err != nil {
			return err
		}
	}
	return nil
}

func parseAndExtract(gff3Path string, policies NormalizationPolicies, showProgress bool) (*Extract, error) {
	f, err := os.Open(gff3Path)
	if err != nil {
		return nil, atlaserr.NewIngestError("opening gff3", err)
	}
	defer f.Close()

	var bar *progressbar.ProgressBar
	if showProgress {
		if info, statErr := f.Stat(); statErr == nil {
			bar = progressbar.NewOptions64(info.Size(), progressbar.OptionSetDescription("ingest"))
		}
	}

	parser := NewGFF3Parser(teeProgress(f, bar))
	extractor := NewExtractor(policies)
	for {
		feature, err := parser.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := extractor.Feed(feature); err != nil {
			return nil, err
		}
	}
	extract := extractor.Finish()
	if policies.Strictness == StrictnessStrict && !extract.Anomalies.IsEmpty() {
		return nil, atlaserr.NewIngestError("strict mode: ingest recorded anomalies", nil)
	}
	return extract, nil
}

// teeProgress wraps r so each read advances bar; bar may be nil.
func teeProgress(r io.Reader, bar *progressbar.ProgressBar) io.Reader {
	if bar == nil {
		return r
	}
	return io.TeeReader(r, bar)
}

// WriteContigShards writes one SQLite shard per contig plus a shard catalog
// (spec §4.2.5's "plan = Contig" mode). RegionGrid is reserved and has no
// writer; callers that want it get model.ShardCatalog's validation error.
func WriteContigShards(derivedDir, datasetCanonical string, extract *Extract) (*model.ShardCatalog, error) {
	genesBySeqid := make(map[string][]GeneRow)
	for _, g := range extract.Genes {
		genesBySeqid[g.Seqid] = append(genesBySeqid[g.Seqid], g)
	}

	shardsDir := filepath.Join(derivedDir, "shards")
	if err := os.MkdirAll(shardsDir, 0o755); err != nil {
		return nil, atlaserr.NewIngestError("creating shards directory", err)
	}

	var shards []model.ShardEntry
	for seqid, genes := range genesBySeqid {
		shardExtract := &Extract{Genes: genes, ContigDistribution: map[string]int{seqid: len(genes)}, BiotypeDistribution: map[string]int{}}
		for _, g := range genes {
			shardExtract.BiotypeDistribution[g.Biotype]++
		}
		shardID := fmt.Sprintf("shard-%s", seqid)
		shardPath := filepath.Join(shardsDir, shardID+".sqlite")
		if err := WriteRelationalArtifact(shardPath, shardExtract); err != nil {
			return nil, err
		}
		bytes, err := os.ReadFile(shardPath)
		if err != nil {
			return nil, atlaserr.NewIngestError("reading shard for hashing", err)
		}
		shards = append(shards, model.ShardEntry{
			ShardID:     shardID,
			Seqids:      []string{seqid},
			SqlitePath:  filepath.Join("shards", shardID+".sqlite"),
			ContentHash: canonical.SHA256Hex(bytes),
		})
	}

	catalog := &model.ShardCatalog{Dataset: datasetCanonical, Plan: model.ShardingPlanContig, Shards: shards}
	if err := catalog.ValidateStrict(); err != nil {
		return nil, atlaserr.NewIngestError("shard catalog failed strict validation", err)
	}

	raw, err := model.EncodeShardCatalog(catalog)
	if err != nil {
		return nil, atlaserr.NewIngestError("encoding shard catalog", err)
	}
	if err := atomicfile.Write(filepath.Join(derivedDir, "shard_catalog.json"), raw, 0o644); err != nil {
		return nil, atlaserr.NewIngestError("writing shard_catalog.json", err)
	}
	return catalog, nil
}
