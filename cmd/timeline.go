package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/plantrack/internal/board"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
)

const defaultTermWidth = 100

var timelineCmd = &cobra.Command{
	Use:   "timeline PROJECT",
	Short: "Show a project's tasks in expected-date order",
	Long: `Lists tasks by expected date, unknown dates last. Start is the expected
date minus the duration. Overdue tasks are highlighted. Use --gantt for a
text Gantt chart scaled to the terminal width.`,
	Args: cobra.ExactArgs(1),
	RunE: runTimeline,
}

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Aliases: []string{"matrix"},
	Short:   "Show milestones across all projects",
	Long: `Lays out the template's milestones against every project. Each cell holds
the project's expected date for that milestone; overdue cells are flagged.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	timelineCmd.Flags().Bool("milestones", false, "only milestone rows")
	timelineCmd.Flags().Bool("gantt", false, "render a text Gantt chart")
	timelineCmd.Flags().Int("width", 0, "chart width (defaults to the terminal width)")
	rootCmd.AddCommand(timelineCmd, summaryCmd)
}

func runTimeline(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	sh, err := s.LoadProject(args[0])
	if err != nil {
		return err
	}

	milestones, _ := cmd.Flags().GetBool("milestones")
	today := date.Today()
	items := board.Timeline(board.Cards(s.Config(), sh), today, milestones)

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, items)
	case output.FormatCompact:
		output.TimelineCompact(os.Stdout, items, today)
		return nil
	}

	if gantt, _ := cmd.Flags().GetBool("gantt"); gantt {
		width, _ := cmd.Flags().GetInt("width")
		if width <= 0 {
			width = terminalWidth()
		}
		output.Gantt(os.Stdout, items, today, width)
		return nil
	}
	output.TimelineTable(os.Stdout, items, today)
	return nil
}

func runSummary(_ *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	tmpl, err := s.LoadTemplate()
	if err != nil {
		return err
	}
	projects, warnings, err := s.ListProjects()
	if err != nil {
		return err
	}
	printWarnings(warnings)

	m := board.BuildMatrix(s.Config(), tmpl, projects, date.Today())
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, m)
	case output.FormatCompact:
		output.MatrixCompact(os.Stdout, m)
	default:
		output.MatrixTable(os.Stdout, m)
	}
	return nil
}

// terminalWidth returns the width of stdout, or a default when it is not
// a terminal.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}
