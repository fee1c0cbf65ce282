package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/board"
	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/config"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/output"
	"github.com/twiced-technology-gmbh/plantrack/internal/watcher"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var boardCmd = &cobra.Command{
	Use:     "board PROJECT",
	Aliases: []string{"kanban"},
	Short:   "Show a project as a Kanban board",
	Long: `Displays the project's tasks in one column per configured status, with
WIP limits and expected dates. Use --summary for counts only, or --group-by
to break counts down by phase, owner, milestone or status.

Use --watch to keep the display live-updating. The board re-renders automatically
whenever workbook files change on disk (e.g., from another terminal).
Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runBoard,
}

var listCmd = &cobra.Command{
	Use:   "list PROJECT",
	Short: "List a project's tasks with filtering and sorting",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	boardCmd.Flags().BoolP("watch", "w", false, "live-update the board on file changes")
	boardCmd.Flags().Bool("summary", false, "show status counts instead of columns")
	boardCmd.Flags().String("group-by", "", "group counts by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	addFilterFlags(boardCmd)

	addFilterFlags(listCmd)
	listCmd.Flags().String("sort", "row", "sort by field ("+strings.Join(board.ValidSortFields(), ", ")+")")
	listCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")

	rootCmd.AddCommand(boardCmd, listCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("status", nil, "only these statuses (comma-separated)")
	cmd.Flags().StringSlice("exclude-status", nil, "skip these statuses (comma-separated)")
	cmd.Flags().String("phase", "", "only this phase")
	cmd.Flags().String("owner", "", "only this owner")
	cmd.Flags().String("search", "", "case-insensitive text search")
	cmd.Flags().Bool("milestones", false, "only milestone rows")
	cmd.Flags().Bool("overdue", false, "only overdue tasks")
}

func filterOptions(cmd *cobra.Command, cfg *config.Config, today date.Date) (board.FilterOptions, error) {
	statuses, _ := cmd.Flags().GetStringSlice("status")
	exclude, _ := cmd.Flags().GetStringSlice("exclude-status")
	for _, s := range append(append([]string{}, statuses...), exclude...) {
		if _, ok := cfg.NormalizeStatus(s); !ok {
			return board.FilterOptions{}, workbook.ValidateStatus(s, cfg.StatusNames())
		}
	}
	phase, _ := cmd.Flags().GetString("phase")
	owner, _ := cmd.Flags().GetString("owner")
	search, _ := cmd.Flags().GetString("search")
	milestones, _ := cmd.Flags().GetBool("milestones")
	overdue, _ := cmd.Flags().GetBool("overdue")

	return board.FilterOptions{
		Statuses:        statuses,
		ExcludeStatuses: exclude,
		Phase:           phase,
		Owner:           owner,
		Search:          search,
		MilestonesOnly:  milestones,
		OverdueOnly:     overdue,
		Today:           today,
	}, nil
}

// loadCards reads a project and applies the command's filters.
func loadCards(cmd *cobra.Command, s *workbook.Store, project string, today date.Date) (string, []board.Card, error) {
	sh, err := s.LoadProject(project)
	if err != nil {
		return "", nil, err
	}
	opts, err := filterOptions(cmd, s.Config(), today)
	if err != nil {
		return "", nil, err
	}
	cards := board.Filter(board.Cards(s.Config(), sh), opts)
	if cards == nil {
		cards = []board.Card{}
	}
	return sh.Name, cards, nil
}

func runBoard(cmd *cobra.Command, args []string) error {
	groupBy, _ := cmd.Flags().GetString("group-by")
	if groupBy != "" && !slices.Contains(board.ValidGroupByFields(), groupBy) {
		return clierr.Newf(clierr.InvalidGroupBy, "invalid --group-by field %q; valid: %s",
			groupBy, strings.Join(board.ValidGroupByFields(), ", "))
	}

	s, err := openStore()
	if err != nil {
		return err
	}

	render := func(s *workbook.Store) error {
		return renderBoard(cmd, s, args[0], groupBy)
	}
	if err := render(s); err != nil {
		return err
	}

	if watch, _ := cmd.Flags().GetBool("watch"); !watch {
		return nil
	}
	return watchBoard(s, render)
}

func renderBoard(cmd *cobra.Command, s *workbook.Store, project, groupBy string) error {
	today := date.Today()
	name, cards, err := loadCards(cmd, s, project, today)
	if err != nil {
		return err
	}
	cfg := s.Config()

	if groupBy != "" {
		grouped := board.GroupBy(cards, groupBy, cfg)
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, grouped)
		}
		output.GroupedTable(os.Stdout, grouped)
		return nil
	}

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		sum := board.Summary(cfg, name, cards, today)
		switch outputFormat() {
		case output.FormatJSON:
			return output.JSON(os.Stdout, sum)
		case output.FormatCompact:
			output.OverviewCompact(os.Stdout, sum)
		default:
			output.OverviewTable(os.Stdout, sum)
		}
		return nil
	}

	cols := board.Kanban(cfg, cards)
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, map[string]any{"project": name, "columns": cols})
	case output.FormatCompact:
		output.CardCompact(os.Stdout, cards, today)
	default:
		output.KanbanTable(os.Stdout, name, cols, today)
	}
	return nil
}

func watchBoard(s *workbook.Store, render func(*workbook.Store) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := s.Logger()
	w, err := watcher.New(watcher.Paths(s.Config()), func(changed []string) {
		logger.Debug("workbook changed", "files", changed)
		clearScreen()
		// Re-load config in case statuses/WIP limits changed.
		fresh := s
		if cfg, loadErr := config.Load(s.Dir()); loadErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: reloading config: %v\n", loadErr)
		} else {
			fresh = workbook.Open(cfg, logger)
		}
		if renderErr := render(fresh); renderErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: rendering board: %v\n", renderErr)
		}
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer w.Close()

	fmt.Fprintln(os.Stderr, "Watching for changes... (Ctrl+C to stop)")

	w.Run(ctx, func(watchErr error) {
		fmt.Fprintf(os.Stderr, "Warning: file watcher: %v\n", watchErr)
	})

	return nil
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}

func runList(cmd *cobra.Command, args []string) error {
	sortField, _ := cmd.Flags().GetString("sort")
	if !slices.Contains(board.ValidSortFields(), sortField) {
		return clierr.Newf(clierr.InvalidInput, "invalid --sort field %q; valid: %s",
			sortField, strings.Join(board.ValidSortFields(), ", "))
	}
	reverse, _ := cmd.Flags().GetBool("reverse")

	s, err := openStore()
	if err != nil {
		return err
	}
	today := date.Today()
	_, cards, err := loadCards(cmd, s, args[0], today)
	if err != nil {
		return err
	}
	board.Sort(cards, sortField, reverse, s.Config())

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, cards)
	case output.FormatCompact:
		output.CardCompact(os.Stdout, cards, today)
	default:
		output.CardTable(os.Stdout, cards, today)
	}
	return nil
}
