package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goalias/internal/config"
	"github.com/dbsmedya/goalias/internal/logger"
	"github.com/dbsmedya/goalias/internal/pipeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate [OLD_DUMP NEW_DUMP]",
	Short: "Validate configuration and locate every table in both dumps",
	Long: `Validate checks the configuration file and makes sure every enabled
record kind can be found in both dumps before anything else runs.

Checks performed:
  - Configuration syntax and required fields
  - Segment write key (warning only; convert requires it)
  - Both dump files are readable
  - LOCK TABLES and ENABLE KEYS markers of every enabled table

Example:
  goalias validate before.sql after.sql
  goalias validate --config goalias.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintf(outputWriter, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(outputWriter, "Config file: %s\n", GetConfigFile())
	fmt.Fprintf(outputWriter, "Enabled kinds: %d\n\n", len(cfg.EnabledKinds()))

	if err := cfg.Validate(); err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				fmt.Fprintf(outputWriter, "❌ %s\n", e.Error())
			}
		} else {
			fmt.Fprintf(outputWriter, "❌ %v\n", err)
		}
		return fmt.Errorf("configuration is invalid")
	}
	fmt.Fprintln(outputWriter, "✓ Configuration OK")

	if cfg.Segment.WriteKey == "" {
		fmt.Fprintln(outputWriter, "⚠ No Segment write key configured (required by convert)")
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
	oldDump, newDump, err := p.LoadDumps(commandContext(cmd), oldPath, newPath)
	if err != nil {
		fmt.Fprintf(outputWriter, "❌ %v\n", err)
		return fmt.Errorf("validation failed")
	}

	hasErrors := false
	for _, d := range []struct {
		label string
		path  string
		text  string
	}{
		{"old", oldPath, oldDump},
		{"new", newPath, newDump},
	} {
		fmt.Fprintf(outputWriter, "\n--- %s dump: %s ---\n", d.label, d.path)
		errs := p.CheckTables(d.text)
		for _, kind := range cfg.EnabledKinds() {
			fmt.Fprintf(outputWriter, "  table %s (%s)\n", cfg.Table(kind).Table, kind)
		}
		if len(errs) == 0 {
			fmt.Fprintln(outputWriter, "✓ All tables found")
			continue
		}
		hasErrors = true
		for _, e := range errs {
			fmt.Fprintf(outputWriter, "❌ %v\n", e)
		}
	}

	fmt.Fprintln(outputWriter)
	if hasErrors {
		return fmt.Errorf("validation failed")
	}
	fmt.Fprintln(outputWriter, "✓ Validation passed")
	return nil
}
