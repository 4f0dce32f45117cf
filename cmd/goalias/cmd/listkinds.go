package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dbsmedya/goalias/internal/report"
	"github.com/dbsmedya/goalias/internal/types"
)

var listKindsCmd = &cobra.Command{
	Use:   "list-kinds",
	Short: "List record kinds and the tables they are read from",
	Long: `List-kinds displays every record kind, in processing order, with the
dump table and key field it is bound to by the configuration.

Example:
  goalias list-kinds --config goalias.yaml`,
	Args: cobra.NoArgs,
	RunE: runListKinds,
}

func init() {
	rootCmd.AddCommand(listKindsCmd)
}

func runListKinds(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cmd.Printf("Record kinds (processing order):\n\n")

	for i, kind := range types.AllRecordKinds() {
		tc := cfg.Table(kind)

		status := "enabled"
		if !tc.Enabled {
			status = "disabled"
		}

		cmd.Printf("%d. %s (%s)\n", i+1, kind, status)
		cmd.Printf("   Table:      %s\n", tc.Table)
		cmd.Printf("   Key Field:  %d\n", tc.KeyField)
		cmd.Printf("   Header:     %s\n", report.Header(kind))
		cmd.Println()
	}

	return nil
}
