package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/board"
	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/schedule"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"p"},
	Short:   "Create, inspect and manage projects",
}

var projectNewCmd = &cobra.Command{
	Use:     "new NAME",
	Aliases: []string{"create"},
	Short:   "Create a project from the template",
	Long: `Clones the template into a new project. With --start, every root task is
anchored at that date and the expected dates of all tasks are computed.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectNew,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	Args:    cobra.NoArgs,
	RunE:    runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show NAME [ID]",
	Short: "Show a project table, or one task in detail",
	Args:  cobra.RangeArgs(1, 2), //nolint:mnd // project and optional id
	RunE:  runProjectShow,
}

var projectDeleteCmd = &cobra.Command{
	Use:     "delete NAME",
	Aliases: []string{"rm"},
	Short:   "Delete a project",
	Args:    cobra.ExactArgs(1),
	RunE:    runProjectDelete,
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename OLD NEW",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2), //nolint:mnd // old and new name
	RunE:  runProjectRename,
}

var projectExportCmd = &cobra.Command{
	Use:   "export NAME",
	Short: "Write a project as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectExport,
}

var projectImportCSVCmd = &cobra.Command{
	Use:   "import-csv NAME FILE",
	Short: "Create a project from a CSV file",
	Long:  `Reads a CSV whose first line is the header. Use - to read standard input.`,
	Args:  cobra.ExactArgs(2), //nolint:mnd // name and file
	RunE:  runProjectImportCSV,
}

var projectColumnsCmd = &cobra.Command{
	Use:   "columns NAME",
	Short: "Show which project columns drive date resolution",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectColumns,
}

func init() {
	projectNewCmd.Flags().String("start", "", "anchor root tasks at this date and compute the schedule")
	projectDeleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	projectExportCmd.Flags().StringP("out", "o", "", "write to file instead of standard output")
	projectImportCSVCmd.Flags().Bool("overwrite", false, "replace an existing project")

	projectCmd.AddCommand(projectNewCmd, projectListCmd, projectShowCmd, projectDeleteCmd,
		projectRenameCmd, projectExportCmd, projectImportCSVCmd, projectColumnsCmd)
	rootCmd.AddCommand(projectCmd)
}

// projectResult is the JSON shape of a created or imported project.
type projectResult struct {
	*sheet.Sheet
	File     string           `json:"file"`
	Resolved *schedule.Result `json:"resolved,omitempty"`
}

func runProjectNew(cmd *cobra.Command, args []string) error {
	start, err := startFlag(cmd)
	if err != nil {
		return err
	}

	var (
		sh   *sheet.Sheet
		res  *schedule.Result
		file string
	)
	err = mutate(func(s *workbook.Store) error {
		var err error
		sh, res, err = workbook.NewEditor(s, nil).CreateProject(args[0], start)
		if err == nil {
			file = s.ProjectPath(sh.Name)
		}
		return err
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, projectResult{Sheet: sh, File: file, Resolved: res})
	}
	output.Messagef(os.Stdout, "Created project %s (%d tasks) in %s", sh.Name, sh.Len(), file)
	if res != nil {
		printResult(*res)
	}
	return nil
}

func runProjectList(_ *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	projects, warnings, err := s.ListProjects()
	if err != nil {
		return err
	}
	printWarnings(warnings)

	today := date.Today()
	cfg := s.Config()
	summaries := make([]board.Overview, 0, len(projects))
	for _, sh := range projects {
		summaries = append(summaries, board.Summary(cfg, sh.Name, board.Cards(cfg, sh), today))
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, summaries)
	case output.FormatCompact:
		for _, sum := range summaries {
			output.OverviewCompact(os.Stdout, sum)
		}
		return nil
	}

	if len(summaries) == 0 {
		fmt.Fprintln(os.Stderr, "No projects found.")
		return nil
	}
	for i, sum := range summaries {
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		output.OverviewTable(os.Stdout, sum)
	}
	return nil
}

func runProjectShow(_ *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	sh, err := s.LoadProject(args[0])
	if err != nil {
		return err
	}

	if len(args) == 2 { //nolint:mnd // optional task id
		card, ok := board.FindCard(board.Cards(s.Config(), sh), args[1])
		if !ok {
			return workbook.RowNotFound(sh.Name, args[1])
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, card)
		}
		output.CardDetail(os.Stdout, card, date.Today())
		return nil
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, sh)
	case output.FormatCompact:
		output.SheetCompact(os.Stdout, sh)
	default:
		output.SheetTable(os.Stdout, sh)
	}
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		ok, err := confirm(fmt.Sprintf("Delete project %q and all its tasks?", args[0]))
		if err != nil || !ok {
			return err
		}
	}

	err := mutate(func(s *workbook.Store) error {
		if err := s.DeleteProject(args[0]); err != nil {
			return err
		}
		s.LogMutation(workbook.ActionDelete, args[0], "", "")
		return nil
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{"status": "deleted", "project": args[0]})
	}
	output.Messagef(os.Stdout, "Deleted project %s", args[0])
	return nil
}

func runProjectRename(_ *cobra.Command, args []string) error {
	var file string
	err := mutate(func(s *workbook.Store) error {
		sh, err := s.RenameProject(args[0], args[1])
		if err != nil {
			return err
		}
		file = s.ProjectPath(sh.Name)
		s.LogMutation(workbook.ActionRename, sh.Name, "", args[0]+" -> "+sh.Name)
		return nil
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{"old": args[0], "new": args[1], "file": file})
	}
	output.Messagef(os.Stdout, "Renamed project %s -> %s", args[0], args[1])
	return nil
}

func runProjectExport(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return s.ExportCSV(args[0], os.Stdout)
	}

	f, err := os.Create(out) //nolint:gosec // user-chosen output path
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := s.ExportCSV(args[0], f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", out, err)
	}
	output.Messagef(os.Stderr, "Exported %s to %s", args[0], out)
	return nil
}

func runProjectImportCSV(cmd *cobra.Command, args []string) error {
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	in := os.Stdin
	if args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return clierr.Newf(clierr.InvalidInput, "opening %s: %v", args[1], err)
		}
		defer f.Close()
		in = f
	}

	var (
		sh   *sheet.Sheet
		file string
	)
	err := mutate(func(s *workbook.Store) error {
		var err error
		sh, err = s.ImportCSV(args[0], in, overwrite)
		if err != nil {
			return err
		}
		file = s.ProjectPath(sh.Name)
		s.LogMutation(workbook.ActionImport, sh.Name, "", fmt.Sprintf("csv, %d rows", sh.Len()))
		return nil
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, projectResult{Sheet: sh, File: file})
	}
	output.Messagef(os.Stdout, "Imported project %s (%d tasks) from %s", sh.Name, sh.Len(), args[1])
	if missing := schedule.DetectRoles(sh.Header).Missing(); len(missing) > 0 {
		output.Messagef(os.Stderr, "Warning: missing column roles %v; dates will not be resolved", missing)
	}
	return nil
}

func runProjectColumns(_ *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	sh, err := s.LoadProject(args[0])
	if err != nil {
		return err
	}
	return printColumns(s, sh.Header)
}
