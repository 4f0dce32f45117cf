package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goalias/internal/logger"
	"github.com/dbsmedya/goalias/internal/pipeline"
	"github.com/dbsmedya/goalias/internal/report"
)

var previewCmd = &cobra.Command{
	Use:   "preview [OLD_DUMP NEW_DUMP]",
	Short: "Print the old => new identifier mapping without aliasing anything",
	Long: `Preview reads both dumps, pairs teams by slug and users by email, and
prints one line per natural key:

  old => new | key

Entries that exist in only one dump are preceded by a warning; convert will
skip them. Nothing is sent to Segment.

With verification.method: sha256 the digest of every mapping is printed;
pass it to convert with --expect-digest to make sure the mapping you
inspected is the one that gets replayed.

Example:
  goalias preview before.sql after.sql
  goalias preview --config goalias.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	oldPath, newPath, err := cfg.ResolveDumps(args)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	oldDump, newDump, err := p.LoadDumps(ctx, oldPath, newPath)
	if err != nil {
		return err
	}

	result, err := p.Build(ctx, oldDump, newDump)
	if err != nil {
		return err
	}

	for i, kr := range result.Kinds {
		if i > 0 {
			fmt.Fprintln(outputWriter)
		}
		printHeader(report.Header(kr.Kind))
		printReport(report.Report(kr.Dataset))
		printVerification(kr.Verify)
		printSkippedRows(kr.Skipped)
	}

	return nil
}
