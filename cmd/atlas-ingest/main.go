// Command atlas-ingest drives the ingest pipeline (spec §4.2) from the
// command line: parse a GFF3/FASTA/FAI triple, normalize it, write the
// relational artifact and signed manifest, and publish it to an
// ArtifactStore. diff and report-only never touch a store: diff only reads
// two release gene indices, and report-only writes its reports to a local
// output directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bijux/atlas/internal/atlaslog"
)

var (
	flagDebug   bool
	flagVerbose bool
	flagQuiet   bool
	flagNoColor bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "atlas-ingest",
		Short:   "Ingest, diff, and validate genomics reference datasets",
		Long:    "atlas-ingest turns a GFF3/FASTA/FAI triple into a normalized, content-addressed dataset artifact and publishes it to an artifact store.",
		Version: "0.1.0",
		Example: "  atlas-ingest ingest --dataset 109/homo_sapiens/GRCh38 --gff3 genes.gff3 --fasta genome.fa --fai genome.fa.fai --store ./store",
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug-level logging")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress all but error-level logging")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")

	root.AddCommand(newIngestCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newReportOnlyCmd())
	return root
}

func newLogger() *atlaslog.Logger {
	return atlaslog.New(os.Stderr, atlaslog.LevelFromFlags(flagDebug, flagVerbose, flagQuiet))
}
