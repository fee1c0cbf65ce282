package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/schedule"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var setCmd = &cobra.Command{
	Use:   "set PROJECT ID COLUMN VALUE",
	Short: "Edit one cell of a project",
	Long: `Validates and writes one cell. Durations must be whole days, dates are
normalized to dd-Mon-yy and dependencies must name an existing task.

Editing the duration, dependency or expected date recomputes the expected
dates of the task's whole dependency chain and prints what moved.`,
	Args: cobra.ExactArgs(4), //nolint:mnd // project, id, column, value
	RunE: func(_ *cobra.Command, args []string) error {
		return runSetCell(args[0], args[1], args[2], args[3])
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve PROJECT ID",
	Short: "Recompute expected dates around a task",
	Long: `Runs a resolution pass from the given task: walks back to the root of its
dependency chain, then recomputes every expected date forward from there.`,
	Args: cobra.ExactArgs(2), //nolint:mnd // project and id
	RunE: runResolve,
}

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule PROJECT START",
	Short: "Anchor every root task at START and recompute all dates",
	Args:  cobra.ExactArgs(2), //nolint:mnd // project and start date
	RunE:  runReschedule,
}

var addRowCmd = &cobra.Command{
	Use:   "add-row PROJECT",
	Short: "Append a task to a project",
	Long: `Appends a row built from --set Column=value pairs. A missing ID gets the
next free number and a missing status the first configured status.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAddRow(cmd, args[0])
	},
}

var deleteRowCmd = &cobra.Command{
	Use:     "delete-row PROJECT ID[,ID,...]",
	Aliases: []string{"rm-row"},
	Short:   "Delete tasks from a project",
	Long: `Removes rows. Tasks that depended on a removed task keep the dangling
reference and are reported. Multiple IDs require --yes.`,
	Args: cobra.ExactArgs(2), //nolint:mnd // project and ids
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeleteRows(cmd, args[0], args[1])
	},
}

func init() {
	addRowCmd.Flags().StringArray("set", nil, "column value as Column=value (repeatable)")
	deleteRowCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(setCmd, resolveCmd, rescheduleCmd, addRowCmd, deleteRowCmd)
}

// sheetLabel names the sheet a command edits in messages.
func sheetLabel(project string) string {
	if project == "" {
		return "template"
	}
	return project
}

// runSetCell edits a cell of project, or of the template when project is "".
func runSetCell(project, id, column, value string) error {
	var ed *workbook.Edit
	err := mutate(func(s *workbook.Store) error {
		var err error
		ed, err = workbook.NewEditor(s, nil).SetCell(project, id, column, value)
		return err
	})
	if err != nil {
		return err
	}

	printMessages(ed.Warnings)
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, ed)
	}

	output.Messagef(os.Stdout, "Set %s of task %s in %s: %s -> %s",
		ed.Column, ed.TaskID, sheetLabel(project), orDash(ed.Old), orDash(ed.New))
	if ed.Resolved != nil {
		printResult(*ed.Resolved)
	}
	return nil
}

func runResolve(_ *cobra.Command, args []string) error {
	var res schedule.Result
	err := mutate(func(s *workbook.Store) error {
		var err error
		res, err = workbook.NewEditor(s, nil).Resolve(args[0], args[1])
		return err
	})
	if err != nil {
		return err
	}
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, res)
	}
	printResult(res)
	return nil
}

func runReschedule(_ *cobra.Command, args []string) error {
	start, err := parseDate("start", args[1])
	if err != nil {
		return err
	}

	var res schedule.Result
	err = mutate(func(s *workbook.Store) error {
		var err error
		res, err = workbook.NewEditor(s, nil).Reschedule(args[0], start)
		return err
	})
	if err != nil {
		return err
	}
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, res)
	}
	printResult(res)
	return nil
}

// runAddRow appends a row to project, or to the template when project is "".
func runAddRow(cmd *cobra.Command, project string) error {
	pairs, _ := cmd.Flags().GetStringArray("set")
	values, err := parseAssignments(pairs)
	if err != nil {
		return err
	}

	var ed *workbook.Edit
	err = mutate(func(s *workbook.Store) error {
		var err error
		ed, err = workbook.NewEditor(s, nil).AddRow(project, values)
		return err
	})
	if err != nil {
		return err
	}

	printMessages(ed.Warnings)
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, ed)
	}
	output.Messagef(os.Stdout, "Added task %s to %s", ed.TaskID, sheetLabel(project))
	if ed.Resolved != nil {
		printResult(*ed.Resolved)
	}
	return nil
}

// runDeleteRows removes rows from project, or from the template when
// project is "".
func runDeleteRows(cmd *cobra.Command, project, idArg string) error {
	ids, err := parseIDs(idArg)
	if err != nil {
		return err
	}
	yes, _ := cmd.Flags().GetBool("yes")

	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationReq, "batch delete requires --yes")
	}

	deleteOne := func(id string) error {
		return mutate(func(s *workbook.Store) error {
			warnings, err := workbook.NewEditor(s, nil).DeleteRow(project, id)
			printMessages(warnings)
			return err
		})
	}

	if len(ids) > 1 {
		return runBatch(ids, deleteOne)
	}

	if !yes {
		ok, err := confirm(fmt.Sprintf("Delete task %s from %s?", ids[0], sheetLabel(project)))
		if err != nil || !ok {
			return err
		}
	}
	if err := deleteOne(ids[0]); err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"status":  "deleted",
			"project": project,
			"id":      ids[0],
		})
	}
	output.Messagef(os.Stdout, "Deleted task %s from %s", ids[0], sheetLabel(project))
	return nil
}

// printResult renders a resolution pass in the selected format.
func printResult(res schedule.Result) {
	if outputFormat() == output.FormatCompact {
		output.ChangesCompact(os.Stdout, res)
		return
	}
	output.ChangesTable(os.Stdout, res)
}

// startFlag reads an optional --start date.
func startFlag(cmd *cobra.Command) (*date.Date, error) {
	raw, _ := cmd.Flags().GetString("start")
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := parseDate("start", raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func orDash(s string) string {
	if s == "" {
		return "--"
	}
	return s
}
