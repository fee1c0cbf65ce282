// Package tui implements a terminal Kanban board for one plantrack project.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/plantrack/internal/board"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/watcher"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

// view represents the current screen state.
type view int

const (
	viewBoard view = iota
	viewConfirmDelete
	viewHelp
)

// Layout constants.
const (
	boardChrome  = 2               // blank line + status bar below the column area
	errorChrome  = 1               // extra line when an error or notice is displayed
	tickInterval = 1 * time.Minute // how often overdue markers are re-evaluated
)

type keyMap struct {
	Quit, Left, Right, Up, Down key.Binding
	MovePrev, MoveNext          key.Binding
	Delete, Resolve, Overdue    key.Binding
	Help, Confirm, Cancel       key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "prev column")),
	Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next column")),
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	MovePrev: key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "move card left")),
	MoveNext: key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "move card right")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
	Resolve:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resolve dates")),
	Overdue:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "overdue only")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Confirm:  key.NewBinding(key.WithKeys("y", "Y")),
	Cancel:   key.NewBinding(key.WithKeys("n", "N", "esc", "q")),
}

// Board is the top-level bubbletea model.
type Board struct {
	store     *workbook.Store
	editor    *workbook.Editor
	project   string
	cards     []board.Card
	columns   []column
	activeCol int
	activeRow int
	view      view
	width     int
	height    int
	err       error
	notice    string
	overdue   bool
	today     func() date.Date

	// Delete confirmation.
	deleteID    string
	deleteTitle string
}

// column groups cards belonging to a single status.
type column struct {
	status    string
	wip       int
	done      bool
	cards     []board.Card
	scrollOff int // first visible row index
}

// NewBoard creates a board for project.
func NewBoard(store *workbook.Store, project string) *Board {
	b := &Board{
		store:   store,
		editor:  workbook.NewEditor(store, nil),
		project: project,
		today:   date.Today,
	}
	b.loadCards()
	return b
}

// SetToday overrides the clock used for overdue and due-date coloring.
func (b *Board) SetToday(fn func() date.Date) {
	b.today = fn
	b.loadCards()
}

// Init implements tea.Model.
func (b *Board) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.MouseMsg:
		return b.handleMouse(msg)
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.ensureVisible()
		return b, nil
	case ReloadMsg:
		b.loadCards()
		return b, nil
	case TickMsg:
		b.loadCards()
		return b, tickCmd()
	case errMsg:
		b.err = msg.err
		return b, nil
	}
	return b, nil
}

// View implements tea.Model.
func (b *Board) View() string {
	if b.width == 0 {
		return "Loading..."
	}

	switch b.view {
	case viewConfirmDelete:
		return b.viewDeleteConfirm()
	case viewHelp:
		return b.viewHelp()
	default:
		return b.viewBoard()
	}
}

func (b *Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return b, tea.Quit
	}

	switch b.view {
	case viewBoard:
		return b.handleBoardKey(msg)
	case viewConfirmDelete:
		return b.handleDeleteKey(msg)
	case viewHelp:
		b.view = viewBoard
	}
	return b, nil
}

func (b *Board) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit), msg.String() == "esc":
		return b, tea.Quit
	case key.Matches(msg, keys.Left):
		if b.activeCol > 0 {
			b.activeCol--
			b.clampRow()
		}
	case key.Matches(msg, keys.Right):
		if b.activeCol < len(b.columns)-1 {
			b.activeCol++
			b.clampRow()
		}
	case key.Matches(msg, keys.Down):
		col := b.currentColumn()
		if col != nil && b.activeRow < len(col.cards)-1 {
			b.activeRow++
			b.ensureVisible()
		}
	case key.Matches(msg, keys.Up):
		if b.activeRow > 0 {
			b.activeRow--
			b.ensureVisible()
		}
	case key.Matches(msg, keys.MovePrev):
		b.moveSelected(workbook.MovePrev, -1)
	case key.Matches(msg, keys.MoveNext):
		b.moveSelected(workbook.MoveNext, 1)
	case key.Matches(msg, keys.Resolve):
		b.resolveSelected()
	case key.Matches(msg, keys.Overdue):
		b.overdue = !b.overdue
		b.loadCards()
	case key.Matches(msg, keys.Delete):
		if c := b.selectedCard(); c != nil {
			b.deleteID, b.deleteTitle = c.ID, c.Title()
			b.view = viewConfirmDelete
		}
	case key.Matches(msg, keys.Help):
		b.view = viewHelp
	}
	return b, nil
}

// moveSelected moves the selected card one status over and keeps it
// selected in its new column.
func (b *Board) moveSelected(direction string, delta int) {
	c := b.selectedCard()
	if c == nil {
		return
	}
	id := c.ID
	if _, err := b.editor.Move(b.project, id, direction); err != nil {
		b.err, b.notice = err, ""
		return
	}
	b.err, b.notice = nil, ""
	b.loadCards()
	b.activeCol = min(max(b.activeCol+delta, 0), len(b.columns)-1)
	b.selectID(id)
}

func (b *Board) resolveSelected() {
	c := b.selectedCard()
	if c == nil {
		return
	}
	res, err := b.editor.Resolve(b.project, c.ID)
	switch {
	case err != nil:
		b.err, b.notice = err, ""
	case res.Aborted:
		b.err, b.notice = nil, "resolve skipped: "+res.Reason
	default:
		b.err = nil
		b.notice = fmt.Sprintf("%d dates changed from root %s", len(res.Changes), res.Root)
		if res.Cycle {
			b.notice += " (dependency cycle)"
		}
	}
	b.loadCards()
}

func (b *Board) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		return b.executeDelete()
	case key.Matches(msg, keys.Cancel):
		b.view = viewBoard
	}
	return b, nil
}

func (b *Board) executeDelete() (tea.Model, tea.Cmd) {
	warnings, err := b.editor.DeleteRow(b.project, b.deleteID)
	if err != nil {
		b.err = fmt.Errorf("deleting task %s: %w", b.deleteID, err)
	} else {
		b.err = nil
		b.notice = "deleted task " + b.deleteID
		if len(warnings) > 0 {
			b.notice += "; " + strings.Join(warnings, "; ")
		}
	}
	b.view = viewBoard
	b.loadCards()
	return b, nil
}

// handleMouse handles mouse click events for card selection.
func (b *Board) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return b, nil
	}
	if b.view != viewBoard {
		return b, nil
	}

	colWidth := b.columnWidth()
	clickedCol := msg.X / colWidth
	if clickedCol >= len(b.columns) {
		return b, nil
	}

	col := &b.columns[clickedCol]
	b.activeCol = clickedCol
	lineY := msg.Y - 1
	if lineY < 0 {
		b.clampRow()
		return b, nil
	}

	cardLine := 0
	for rowIdx := col.scrollOff; rowIdx < len(col.cards); rowIdx++ {
		cardH := b.cardHeight(col.cards[rowIdx], colWidth)
		if lineY < cardLine+cardH {
			b.activeRow = rowIdx
			b.ensureVisible()
			return b, nil
		}
		cardLine += cardH
	}
	b.clampRow()
	return b, nil
}

// loadCards reads the project and organizes its rows into status columns.
func (b *Board) loadCards() {
	sh, err := b.store.LoadProject(b.project)
	if err != nil {
		b.err = err
		return
	}

	cfg := b.store.Config()
	cards := board.Cards(cfg, sh)
	if b.overdue {
		cards = board.Filter(cards, board.FilterOptions{OverdueOnly: true, Today: b.today()})
	}
	b.cards = cards

	kanban := board.Kanban(cfg, cards)
	prev := b.columns
	b.columns = make([]column, len(kanban))
	for i, k := range kanban {
		b.columns[i] = column{status: k.Status, wip: k.WIPLimit, done: k.Done, cards: k.Cards}
		if i < len(prev) && prev[i].status == k.Status {
			b.columns[i].scrollOff = prev[i].scrollOff
		}
	}
	if b.activeCol >= len(b.columns) {
		b.activeCol = max(len(b.columns)-1, 0)
	}
	b.clampRow()
}

func (b *Board) selectID(id string) {
	col := b.currentColumn()
	if col == nil {
		return
	}
	for i, c := range col.cards {
		if c.ID == id {
			b.activeRow = i
			b.ensureVisible()
			return
		}
	}
	b.clampRow()
}

func (b *Board) currentColumn() *column {
	if b.activeCol >= 0 && b.activeCol < len(b.columns) {
		return &b.columns[b.activeCol]
	}
	return nil
}

func (b *Board) selectedCard() *board.Card {
	col := b.currentColumn()
	if col == nil || len(col.cards) == 0 {
		return nil
	}
	if b.activeRow >= 0 && b.activeRow < len(col.cards) {
		return &col.cards[b.activeRow]
	}
	return nil
}

func (b *Board) clampRow() {
	col := b.currentColumn()
	if col == nil || len(col.cards) == 0 {
		b.activeRow = 0
		return
	}
	if b.activeRow >= len(col.cards) {
		b.activeRow = len(col.cards) - 1
	}
	b.ensureVisible()
}

// chromeHeight returns the number of lines consumed by non-card elements below
// the column area: blank line + status bar (+ error line when an error is shown).
func (b *Board) chromeHeight() int {
	h := boardChrome
	if b.err != nil || b.notice != "" {
		h += errorChrome
	}
	return h
}

// visibleCardsForColumn returns the number of cards that fit in the column,
// accounting for scroll indicator lines ("↑ N more" / "↓ N more") that
// consume vertical space.
func (b *Board) visibleCardsForColumn(col *column, width int) int {
	budget := b.height - b.chromeHeight()
	if budget < 1 {
		return 1
	}

	// Always need 1 line for column header.
	avail := budget - 1
	if col.scrollOff > 0 {
		avail--
	}

	n := b.fitCardsInHeight(col, avail, width)
	if col.scrollOff+n < len(col.cards) {
		n = max(b.fitCardsInHeight(col, avail-1, width), 1)
	}
	return n
}

// ensureVisible adjusts the active column's scroll offset so the
// selected row is within the visible window.
func (b *Board) ensureVisible() {
	col := b.currentColumn()
	if col == nil || b.height == 0 {
		return
	}
	w := b.columnWidth()

	for range len(col.cards) + 1 {
		maxVis := b.visibleCardsForColumn(col, w)

		switch {
		case b.activeRow >= col.scrollOff+maxVis:
			col.scrollOff = b.activeRow - maxVis + 1
		case b.activeRow < col.scrollOff:
			col.scrollOff = b.activeRow
		default:
			return
		}
	}
}

func (b *Board) fitCardsInHeight(col *column, avail, width int) int {
	if len(col.cards) == 0 || avail < 1 {
		return 1
	}

	used, count := 0, 0
	for i := col.scrollOff; i < len(col.cards); i++ {
		cardLines := b.cardHeight(col.cards[i], width)
		if count > 0 && used+cardLines > avail {
			break
		}
		count++
		used += cardLines
		if used >= avail {
			break
		}
	}
	return max(count, 1)
}

// WatchPaths returns the paths that should be watched for file changes.
func (b *Board) WatchPaths() []string {
	return watcher.Paths(b.store.Config())
}

// --- Messages ---

// ReloadMsg is sent by the file watcher to trigger a board refresh.
type ReloadMsg struct{}

type errMsg struct{ err error }

// TickMsg is sent periodically so overdue markers follow the clock.
type TickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return TickMsg{} })
}
