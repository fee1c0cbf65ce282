package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/plantrack/internal/tui"
	"github.com/twiced-technology-gmbh/plantrack/internal/watcher"
)

var tuiCmd = &cobra.Command{
	Use:   "tui PROJECT",
	Short: "Open the interactive Kanban board for a project",
	Long: `Shows a project's tasks as cards grouped by status. Cards can be moved
between statuses, resolved and deleted. The board reloads when the workbook
changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	if _, err := s.LoadProject(args[0]); err != nil {
		return err
	}

	model := tui.NewBoard(s, args[0])
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go startTUIWatcher(ctx, model, p)

	_, err = p.Run()
	return err
}

func startTUIWatcher(ctx context.Context, model *tui.Board, p *tea.Program) {
	w, err := watcher.New(model.WatchPaths(), func([]string) {
		p.Send(tui.ReloadMsg{})
	})
	if err != nil {
		return // non-fatal: TUI works without live refresh
	}
	defer w.Close()
	w.Run(ctx, nil)
}
