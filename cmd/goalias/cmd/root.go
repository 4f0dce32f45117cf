package cmd

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/goalias/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

const defaultConfigFile = "goalias.yaml"

// CLI flags that override config file values
var (
	cfgFile       string
	logLevel      string
	logFormat     string
	noColor       bool
	skipMalformed bool
)

var rootCmd = &cobra.Command{
	Use:   "goalias",
	Short: "Replay identifier changes between two MySQL dumps as Segment aliases",
	Long: `goalias compares two generations of a MySQL dump taken around a
migration, pairs every team and user by its natural key (slug, email), and
tells Segment that the old identifier and the new identifier are the same
entity.

Workflow:
  1. goalias validate  - check config and locate the tables in both dumps
  2. goalias preview   - print the old => new mapping (read-only)
  3. goalias convert   - send one alias call per complete mapping

Entries present in only one dump are reported and never aliased.`,
	Version:          Version,
	SilenceUsage:     true,
	PersistentPreRun: applyColorFlag,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile,
		"Path to configuration file (optional when left at the default)")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable coloured console output")

	// Processing overrides
	rootCmd.PersistentFlags().BoolVar(&skipMalformed, "skip-malformed", false,
		"Skip rows that do not split into enough fields instead of aborting")
}

// applyColorFlag turns off console styling when --no-color is set
func applyColorFlag(cmd *cobra.Command, args []string) {
	if noColor {
		color.Enable = false
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel      string
	LogFormat     string
	WriteKey      string
	SkipMalformed bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:      logLevel,
		LogFormat:     logFormat,
		WriteKey:      convertWriteKey,
		SkipMalformed: skipMalformed,
	}
}

// loadConfig reads the config file and applies CLI overrides. The default
// config file may be absent; a path given explicitly with --config may not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile := GetConfigFile()

	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.LoadOptional(configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.WriteKey, overrides.SkipMalformed)
	return cfg, nil
}
