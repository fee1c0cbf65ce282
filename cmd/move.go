package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var moveCmd = &cobra.Command{
	Use:   "move PROJECT ID[,ID,...] [STATUS]",
	Short: "Move a task to a different status",
	Long: `Changes the status of a task. Provide the new status directly,
or use --next/--prev to move along the configured status order.
Multiple IDs can be provided as a comma-separated list.`,
	Args: cobra.RangeArgs(2, 3), //nolint:mnd // project, ids and optional status
	RunE: runMove,
}

func init() {
	moveCmd.Flags().Bool("next", false, "move to next status")
	moveCmd.Flags().Bool("prev", false, "move to previous status")
	moveCmd.MarkFlagsMutuallyExclusive("next", "prev")
	rootCmd.AddCommand(moveCmd)
}

// moveResult wraps an edit with a changed flag for JSON output.
type moveResult struct {
	*workbook.Edit
	Changed bool `json:"changed"`
}

func runMove(cmd *cobra.Command, args []string) error {
	project := args[0]
	ids, err := parseIDs(args[1])
	if err != nil {
		return err
	}
	target, err := moveTarget(cmd, args)
	if err != nil {
		return err
	}

	if len(ids) > 1 {
		return runBatch(ids, func(id string) error {
			_, err := executeMove(project, id, target)
			if isCode(err, clierr.NoChanges) {
				return nil
			}
			return err
		})
	}

	ed, err := executeMove(project, ids[0], target)
	if isCode(err, clierr.NoChanges) {
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, moveResult{Edit: &workbook.Edit{Project: project, TaskID: ids[0]}})
		}
		output.Messagef(os.Stdout, "Task %s is already at %s", ids[0], target)
		return nil
	}
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, moveResult{Edit: ed, Changed: true})
	}
	output.Messagef(os.Stdout, "Moved task %s: %s -> %s", ed.TaskID, orDash(ed.Old), ed.New)
	return nil
}

func executeMove(project, id, target string) (*workbook.Edit, error) {
	var ed *workbook.Edit
	err := mutate(func(s *workbook.Store) error {
		var err error
		ed, err = workbook.NewEditor(s, nil).Move(project, id, target)
		return err
	})
	return ed, err
}

func moveTarget(cmd *cobra.Command, args []string) (string, error) {
	next, _ := cmd.Flags().GetBool("next")
	prev, _ := cmd.Flags().GetBool("prev")

	switch {
	case len(args) == 3: //nolint:mnd // positional status
		return args[2], nil
	case next:
		return workbook.MoveNext, nil
	case prev:
		return workbook.MovePrev, nil
	default:
		return "", clierr.New(clierr.InvalidInput, "provide a target status or use --next/--prev")
	}
}
