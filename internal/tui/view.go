package tui

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/plantrack/internal/board"
)

var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	activeColumnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("226")).
			Padding(0, 1)

	overdueCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("196")).
				Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	milestoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)

	// phaseColorPalette is a set of distinct, readable terminal colors for auto-coloring phases.
	phaseColorPalette = []lipgloss.Color{"33", "36", "35", "32", "91", "34", "93", "96"}

	dialogPadY = 1
	dialogPadX = 2

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(dialogPadY, dialogPadX)
)

// phaseStyle returns a consistent style for a phase, derived by hashing
// the phase name into the palette. Same phase always gets the same color.
func phaseStyle(phase string) lipgloss.Style {
	if phase == "" {
		return lipgloss.NewStyle()
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(phase))
	color := phaseColorPalette[h.Sum32()%uint32(len(phaseColorPalette))]
	return lipgloss.NewStyle().Foreground(color)
}

// dueStyle colors an expected date by how many days remain.
func (b *Board) dueStyle(c board.Card) lipgloss.Style {
	if c.Done {
		return dimStyle
	}
	days, ok := c.DaysLeft(b.today())
	if !ok {
		return dimStyle
	}
	if color := b.store.Config().DueColor(days); color != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	return dimStyle
}

// --- View rendering ---

func (b *Board) viewBoard() string {
	if len(b.columns) == 0 {
		return "No statuses configured."
	}

	colWidth := b.columnWidth()

	renderedCols := make([]string, len(b.columns))
	for i, col := range b.columns {
		renderedCols[i] = b.renderColumn(i, col, colWidth)
	}

	boardView := lipgloss.JoinHorizontal(lipgloss.Top, renderedCols...)

	// Clamp from the bottom so headers stay visible on tiny terminals.
	targetHeight := b.height - b.chromeHeight()
	if targetHeight > 0 {
		actual := strings.Count(boardView, "\n") + 1
		if actual > targetHeight {
			viewLines := strings.SplitN(boardView, "\n", targetHeight+1)
			boardView = strings.Join(viewLines[:targetHeight], "\n")
		} else if actual < targetHeight {
			boardView += strings.Repeat("\n", targetHeight-actual)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, boardView, "", b.renderStatusBar())
}

func (b *Board) columnWidth() int {
	if b.width == 0 || len(b.columns) == 0 {
		return 30 //nolint:mnd // default column width
	}
	w := b.width / len(b.columns)
	const maxColWidth = 60
	return min(w, maxColWidth)
}

func (b *Board) renderColumn(colIdx int, col column, width int) string {
	headerText := fmt.Sprintf("%s (%d)", col.status, len(col.cards))
	if col.wip > 0 {
		headerText = fmt.Sprintf("%s (%d/%d)", col.status, len(col.cards), col.wip)
	}
	const headerPad = 2
	headerText = truncate(headerText, width-headerPad)

	var header string
	if colIdx == b.activeCol {
		header = activeColumnHeaderStyle.Width(width).Render(headerText)
	} else {
		header = columnHeaderStyle.Width(width).Render(headerText)
	}

	maxVis := b.visibleCardsForColumn(&col, width)
	start := min(col.scrollOff, len(col.cards))
	end := min(start+maxVis, len(col.cards))

	parts := []string{header}

	if start > 0 {
		parts = append(parts, dimStyle.Width(width).Render(truncate(fmt.Sprintf("  ↑ %d more", start), width)))
	}

	if len(col.cards) == 0 {
		parts = append(parts, dimStyle.Width(width).Render("  (empty)"))
	} else {
		for rowIdx := start; rowIdx < end; rowIdx++ {
			active := colIdx == b.activeCol && rowIdx == b.activeRow
			parts = append(parts, b.renderCard(col.cards[rowIdx], active, width))
		}
	}

	if end < len(col.cards) {
		indicator := fmt.Sprintf("  ↓ %d more", len(col.cards)-end)
		parts = append(parts, dimStyle.Width(width).Render(truncate(indicator, width)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *Board) renderCard(c board.Card, active bool, width int) string {
	content := strings.Join(b.cardContentLines(c, width), "\n")

	style := cardStyle
	switch {
	case active:
		style = activeCardStyle
	case c.IsOverdue(b.today()):
		style = overdueCardStyle
	}
	return style.Width(width - 2).Render(content) //nolint:mnd // border width
}

func (b *Board) cardHeight(c board.Card, width int) int {
	return len(b.cardContentLines(c, width)) + 2 //nolint:mnd // top and bottom borders
}

func (b *Board) cardContentLines(c board.Card, width int) []string {
	const cardChrome = 4 // border (2) + padding (2)
	cardWidth := max(width-cardChrome, 1)

	var lines []string

	title := c.Title()
	prefix := ""
	if c.IsMilestone() {
		prefix = milestoneStyle.Render("◆ ")
		if c.Task != "" {
			title = c.Milestone + ": " + c.Task
		}
	}
	titleWidth := cardWidth - lipgloss.Width(prefix)
	style := phaseStyle(c.Phase)
	for i, line := range wrapTitle(title, max(titleWidth, 1), b.store.Config().TitleLines()) {
		if i == 0 {
			lines = append(lines, prefix+style.Render(line))
			continue
		}
		lines = append(lines, style.Render(line))
	}

	meta := "#" + c.ID
	if c.Dependency != "" {
		meta += " ← " + c.Dependency
	}
	if c.Owner != "" {
		meta += "  " + c.Owner
	}
	lines = append(lines, dimStyle.Render(truncate(meta, cardWidth)))

	if c.Expected != nil {
		due := c.Expected.String()
		if days, ok := c.DaysLeft(b.today()); ok && !c.Done {
			due += " " + humanDays(days)
		}
		lines = append(lines, b.dueStyle(c).Render(truncate(due, cardWidth)))
	}

	return lines
}

// wrapTitle splits a title across maxLines lines, word-wrapping at word
// boundaries. Each line is at most maxWidth characters.
func wrapTitle(title string, maxWidth, maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}
	if lipgloss.Width(title) <= maxWidth || maxLines == 1 {
		return []string{truncate(title, maxWidth)}
	}

	words := strings.Fields(title)
	lines := make([]string, 0, maxLines)
	var current strings.Builder

	for i, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if lipgloss.Width(current.String())+1+lipgloss.Width(word) <= maxWidth {
			current.WriteByte(' ')
			current.WriteString(word)
		} else {
			lines = append(lines, truncate(current.String(), maxWidth))
			current.Reset()
			current.WriteString(word)
			if len(lines) == maxLines-1 {
				// Last line: append all remaining words.
				for _, w := range words[i+1:] {
					current.WriteByte(' ')
					current.WriteString(w)
				}
				break
			}
		}
	}
	if current.Len() > 0 {
		lines = append(lines, truncate(current.String(), maxWidth))
	}
	return lines
}

func (b *Board) renderStatusBar() string {
	status := fmt.Sprintf(" %s | %d tasks | H/L:move r:resolve d:del o:overdue ?:help q:quit",
		b.project, len(b.cards))
	if b.overdue {
		status += " | overdue only"
	}
	status = truncate(status, b.width)

	switch {
	case b.err != nil:
		return errorStyle.Render(truncate("Error: "+b.err.Error(), b.width)) + "\n" + statusBarStyle.Render(status)
	case b.notice != "":
		return noticeStyle.Render(truncate(b.notice, b.width)) + "\n" + statusBarStyle.Render(status)
	}
	return statusBarStyle.Render(status)
}

func (b *Board) viewDeleteConfirm() string {
	content := errorStyle.Render("Delete task?") + "\n\n" +
		fmt.Sprintf("  #%s: %s", b.deleteID, b.deleteTitle) + "\n\n" +
		dimStyle.Render("y:yes  n:no")

	return dialogStyle.Render(content)
}

func (b *Board) viewHelp() string {
	bindings := []key.Binding{
		keys.Left, keys.Right, keys.Up, keys.Down,
		keys.MovePrev, keys.MoveNext, keys.Resolve,
		keys.Delete, keys.Overdue, keys.Quit,
	}
	var sb strings.Builder
	sb.WriteString(activeColumnHeaderStyle.Render(b.project) + "\n\n")
	for _, k := range bindings {
		h := k.Help()
		fmt.Fprintf(&sb, "  %-8s %s\n", h.Key, dimStyle.Render(h.Desc))
	}
	sb.WriteString("\n" + dimStyle.Render("any key to return"))
	return dialogStyle.Render(sb.String())
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 { //nolint:mnd // minimum length for truncation
		maxLen = 4
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	target := min(maxLen-3, len(runes)) //nolint:mnd // room for "..."
	for target > 0 && lipgloss.Width(string(runes[:target])) > maxLen-3 {
		target--
	}
	return string(runes[:target]) + "..."
}

// humanDays formats a day offset relative to today.
// Examples: "today", "in 3d", "2d late", "in 5w".
func humanDays(days int) string {
	const week = 7
	switch {
	case days == 0:
		return "today"
	case days < 0:
		return strconv.Itoa(-days) + "d late"
	case days < 2*week:
		return "in " + strconv.Itoa(days) + "d"
	default:
		return "in " + strconv.Itoa(days/week) + "w"
	}
}
