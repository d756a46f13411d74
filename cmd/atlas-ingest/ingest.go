package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bijux/atlas/internal/canonical"
	"github.com/bijux/atlas/internal/ids"
	"github.com/bijux/atlas/internal/ingest"
	"github.com/bijux/atlas/internal/model"
	"github.com/bijux/atlas/internal/store"
)

type ingestFlags struct {
	dataset       string
	gff3Path      string
	fastaPath     string
	faiPath       string
	storeRoot     string
	shardByContig bool
	debugStream   bool
	replayMode    bool
	yes           bool
}

func newIngestCmd() *cobra.Command {
	var f ingestFlags
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Parse, normalize, and publish one release/species/assembly dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.dataset, "dataset", "", "dataset as release/species/assembly (required)")
	cmd.Flags().StringVar(&f.gff3Path, "gff3", "", "path to the input GFF3 file (required)")
	cmd.Flags().StringVar(&f.fastaPath, "fasta", "", "path to the input FASTA file (required)")
	cmd.Flags().StringVar(&f.faiPath, "fai", "", "path to the input FASTA index (.fai) file (required)")
	cmd.Flags().StringVar(&f.storeRoot, "store", "", "artifact store root directory (required)")
	cmd.Flags().BoolVar(&f.shardByContig, "shard-by-contig", false, "also write per-contig shards and a shard catalog")
	cmd.Flags().BoolVar(&f.debugStream, "write-debug-stream", false, "write normalized_features.jsonl.zst alongside the artifact")
	cmd.Flags().BoolVar(&f.replayMode, "replay-mode", false, "re-read the debug stream and assert its row counts match (requires --write-debug-stream)")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "skip the publish confirmation prompt")
	for _, name := range []string{"dataset", "gff3", "fasta", "fai", "store"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runIngest(cmd *cobra.Command, f ingestFlags) error {
	logger := newLogger()

	dsID, err := parseDataset(f.dataset)
	if err != nil {
		return err
	}

	derivedDir, err := os.MkdirTemp("", "atlas-ingest-*")
	if err != nil {
		return fmt.Errorf("atlas-ingest: creating scratch directory: %w", err)
	}
	defer os.RemoveAll(derivedDir)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := ingest.JobOptions{
		Policies:         ingest.DefaultNormalizationPolicies(),
		ShardByContig:    f.shardByContig,
		ShowProgress:     !flagQuiet,
		WriteDebugStream: f.debugStream,
		ReplayMode:       f.replayMode,
		Now:              time.Now().UTC(),
	}
	inputs := ingest.JobInputs{
		DatasetCanonical: dsID.String(),
		GFF3Path:         f.gff3Path,
		FastaPath:        f.fastaPath,
		FaiPath:          f.faiPath,
	}

	type runOutcome struct {
		res *ingest.JobResult
		err error
	}
	resultCh := make(chan runOutcome, 1)
	go func() {
		res, err := ingest.Run(inputs, opts, derivedDir, logger)
		resultCh <- runOutcome{res, err}
	}()

	var result *ingest.JobResult
	select {
	case <-ctx.Done():
		return fmt.Errorf("atlas-ingest: interrupted before ingest completed")
	case out := <-resultCh:
		if out.err != nil {
			return fmt.Errorf("atlas-ingest: %w", out.err)
		}
		result = out.res
	}

	logger.Infof("ingest: %d genes, %d transcripts normalized", len(result.Extract.Genes), len(result.Extract.Transcripts))

	if !f.yes && !confirmPublish(dsID.String()) {
		logger.Infof("ingest: publish cancelled")
		return nil
	}

	manifestBytes, err := os.ReadFile(filepath.Join(derivedDir, model.ManifestPath()))
	if err != nil {
		return fmt.Errorf("atlas-ingest: reading manifest for publish: %w", err)
	}
	sqliteBytes, err := os.ReadFile(result.SqlitePath)
	if err != nil {
		return fmt.Errorf("atlas-ingest: reading sqlite artifact for publish: %w", err)
	}

	st, err := store.NewLocalStore(f.storeRoot)
	if err != nil {
		return fmt.Errorf("atlas-ingest: opening store: %w", err)
	}

	release, err := st.AcquirePublishLock(ctx, dsID.String())
	if err != nil {
		return fmt.Errorf("atlas-ingest: acquiring publish lock: %w", err)
	}
	defer release()

	if err := st.PutDataset(ctx, dsID.String(), manifestBytes, sqliteBytes,
		canonical.SHA256Hex(manifestBytes), result.Manifest.Checksums.SqliteSha256); err != nil {
		return fmt.Errorf("atlas-ingest: publishing dataset: %w", err)
	}

	logger.Infof("ingest: published %s (artifact_hash=%s)", dsID.String(), result.Manifest.ArtifactHash)
	return nil
}

func parseDataset(s string) (ids.DatasetId, error) {
	parts := splitDataset(s)
	if len(parts) != 3 {
		return ids.DatasetId{}, fmt.Errorf("atlas-ingest: --dataset must be release/species/assembly, got %q", s)
	}
	return ids.NewDatasetId(parts[0], parts[1], parts[2])
}

func splitDataset(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func confirmPublish(dataset string) bool {
	if flagNoColor {
		fmt.Printf("Publish dataset %s? [y/N]: ", dataset)
	} else {
		fmt.Printf("\033[1mPublish dataset %s?\033[0m [y/N]: ", dataset)
	}
	var answer string
	fmt.Scanln(&answer)
	return answer == "y" || answer == "Y" || answer == "yes"
}
