package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bijux/atlas/internal/model"
)

type diffFlags struct {
	fromIndexPath string
	toIndexPath   string
}

func newDiffCmd() *cobra.Command {
	var f diffFlags
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Diff two release_gene_index.json files and print added/removed/changed genes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(f)
		},
	}
	cmd.Flags().StringVar(&f.fromIndexPath, "from", "", "path to the older release_gene_index.json (required)")
	cmd.Flags().StringVar(&f.toIndexPath, "to", "", "path to the newer release_gene_index.json (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runDiff(f diffFlags) error {
	from, err := loadReleaseGeneIndex(f.fromIndexPath)
	if err != nil {
		return err
	}
	to, err := loadReleaseGeneIndex(f.toIndexPath)
	if err != nil {
		return err
	}

	records := model.DiffReleaseGeneIndex(from, to)
	logger := newLogger()
	logger.Infof("diff: %d changed genes between %s and %s", len(records), from.Dataset, to.Dataset)

	enc := json.NewEncoder(os.Stdout)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("atlas-ingest: encoding diff record: %w", err)
		}
	}
	return nil
}

func loadReleaseGeneIndex(path string) (*model.ReleaseGeneIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("atlas-ingest: reading %s: %w", path, err)
	}
	idx, err := model.DecodeReleaseGeneIndex(raw)
	if err != nil {
		return nil, fmt.Errorf("atlas-ingest: decoding %s: %w", path, err)
	}
	return idx, nil
}
