package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goalias/internal/config"
	"github.com/dbsmedya/goalias/internal/logger"
	"github.com/dbsmedya/goalias/internal/metrics"
	"github.com/dbsmedya/goalias/internal/pipeline"
	"github.com/dbsmedya/goalias/internal/replay"
	"github.com/dbsmedya/goalias/internal/report"
	"github.com/dbsmedya/goalias/internal/segment"
	"github.com/dbsmedya/goalias/internal/types"
	"github.com/dbsmedya/goalias/internal/verifier"
)

var (
	convertWriteKey     string
	convertExpectDigest []string
)

var convertCmd = &cobra.Command{
	Use:   "convert [OLD_DUMP NEW_DUMP]",
	Short: "Send one Segment alias call per complete old => new mapping",
	Long: `Convert builds the same mapping as preview and then, for every key
present in both dumps, tells Segment that the old identifier is an alias of
the new one. Teams are processed before users.

Entries missing from either dump are skipped. A failed call is reported and
the run continues with the next entry; the command exits non-zero when any
call failed. Re-running is safe: message ids are derived from the identifier
pair, so Segment deduplicates repeated calls.

Interrupting with Ctrl-C stops before the next call. Aliases already sent
stay in place.

Example:
  goalias convert before.sql after.sql --write-key $SEGMENT_WRITE_KEY
  goalias convert --expect-digest user=3f2a... --config goalias.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertWriteKey, "write-key", "",
		"Segment write key (overrides segment.write_key)")
	convertCmd.Flags().StringSliceVar(&convertExpectDigest, "expect-digest", nil,
		"Refuse to run unless the mapping digest matches, as kind=hex (repeatable)")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateForConvert(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	expected, err := parseExpectedDigests(convertExpectDigest)
	if err != nil {
		return err
	}

	oldPath, newPath, err := cfg.ResolveDumps(args)
	if err != nil {
		return err
	}

	ctx, stop := setupSignalContext(commandContext(cmd), func(sig os.Signal) {
		log.Warnw("Received shutdown signal - stopping before the next alias call", "signal", sig.String())
	})
	defer stop()

	log.Infow("Starting convert", "old", oldPath, "new", newPath, "endpoint", cfg.Segment.Endpoint)

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}
	oldDump, newDump, err := p.LoadDumps(ctx, oldPath, newPath)
	if err != nil {
		return err
	}

	// Every dataset is built and checked before the first call goes out.
	built, err := p.Build(ctx, oldDump, newDump)
	if err != nil {
		return err
	}
	if err := checkBeforeReplay(cfg, built.Kinds, expected); err != nil {
		return err
	}

	client, err := newSegmentClient(cfg, log)
	if err != nil {
		return err
	}

	rec := metrics.NewRecorder()
	defer writeMetrics(cfg, rec, log)

	var (
		results []*replay.Result
		errs    []error
	)
	for i, kr := range built.Kinds {
		if i > 0 {
			fmt.Fprintln(outputWriter)
		}
		printHeader(report.Header(kr.Kind))
		rec.ObserveDataset(kr.Dataset)

		kind := kr.Kind
		replayer := replay.NewReplayer(rec.Instrument(kind, client), log, func(o replay.Outcome) {
			rec.ObserveOutcome(kind, o)
			printOutcome(o)
		})

		res, err := replayer.Replay(ctx, kr.Dataset)
		results = append(results, res)
		if err != nil {
			printConvertSummary(results)
			return fmt.Errorf("convert interrupted: %w", err)
		}
		if err := res.Err(); err != nil {
			errs = append(errs, err)
		}
	}

	printConvertSummary(results)
	return errors.Join(errs...)
}

// writeMetrics writes the metrics textfile when one is configured. A failed
// write is logged and does not change the exit status.
func writeMetrics(cfg *config.Config, rec *metrics.Recorder, log *logger.Logger) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warnw("Metrics textfile not written", "path", cfg.Metrics.Textfile, "error", err)
		return
	}
	log.Debugw("Metrics textfile written", "path", cfg.Metrics.Textfile)
}

func newSegmentClient(cfg *config.Config, log *logger.Logger) (*segment.Client, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	client, err := segment.NewClient(cfg.Segment,
		segment.WithLogger(log),
		segment.WithLocation(loc),
		segment.WithVersion(Version),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Segment client: %w", err)
	}
	return client, nil
}

// parseExpectedDigests reads kind=hex pairs.
func parseExpectedDigests(values []string) (map[types.RecordKind]string, error) {
	expected := make(map[types.RecordKind]string, len(values))
	for _, v := range values {
		name, digest, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(digest) == "" {
			return nil, fmt.Errorf("invalid --expect-digest %q: want kind=hex", v)
		}
		kind, err := types.ParseRecordKind(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("invalid --expect-digest %q: %w", v, err)
		}
		expected[kind] = strings.ToLower(strings.TrimSpace(digest))
	}
	return expected, nil
}

// checkBeforeReplay applies strict verification and digest expectations.
func checkBeforeReplay(cfg *config.Config, kinds []*pipeline.KindResult, expected map[types.RecordKind]string) error {
	seen := make(map[types.RecordKind]bool, len(kinds))
	for _, kr := range kinds {
		seen[kr.Kind] = true

		if cfg.Verification.Strict && !kr.Verify.Passed() {
			printVerification(kr.Verify)
			return fmt.Errorf("%s: verification reported %d issue(s) and verification.strict is set", kr.Kind.Plural(), len(kr.Verify.Issues))
		}

		want, ok := expected[kr.Kind]
		if !ok {
			continue
		}
		if got := verifier.Digest(kr.Dataset); got != want {
			return fmt.Errorf("%s: mapping digest %s does not match expected %s; run preview again", kr.Kind.Plural(), got, want)
		}
	}
	for kind := range expected {
		if !seen[kind] {
			return fmt.Errorf("--expect-digest given for %s, which is not enabled", kind)
		}
	}
	return nil
}

func printConvertSummary(results []*replay.Result) {
	fmt.Fprintln(outputWriter)
	printSection("Summary")
	for _, r := range results {
		fmt.Fprintf(outputWriter, "  %-6s aliased: %d, skipped: %d, failed: %d\n",
			r.Kind.Plural(), r.Aliased, r.Skipped, r.Failed)
	}
}
