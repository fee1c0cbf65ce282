package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

const defaultLogLimit = 20

var logCmd = &cobra.Command{
	Use:     "log",
	Aliases: []string{"activity"},
	Short:   "Show recent workbook activity",
	Args:    cobra.NoArgs,
	RunE:    runLog,
}

func init() {
	logCmd.Flags().IntP("limit", "n", defaultLogLimit, "number of entries to show (0 for all)")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := workbook.ReadLog(cfg.Dir(), limit)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		if entries == nil {
			entries = []workbook.LogEntry{}
		}
		return output.JSON(os.Stdout, entries)
	}
	output.LogTable(os.Stdout, entries)
	return nil
}
