package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/twiced-technology-gmbh/plantrack/internal/board"
	"github.com/twiced-technology-gmbh/plantrack/internal/config"
	"github.com/twiced-technology-gmbh/plantrack/internal/contact"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/schedule"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle  = lipgloss.NewStyle().Bold(true)

	// Status colors aligned with TUI column-header palette.
	statusStyles = map[string]lipgloss.Style{
		"pendiente":  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		"en curso":   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		"bloqueado":  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"completado": lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	milestoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	tagStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	columnStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// DisableColor strips all styling from table output and forces the ASCII
// color profile so lipgloss emits no escape sequences.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	titleStyle = lipgloss.NewStyle()
	statusStyles = map[string]lipgloss.Style{}
	overdueStyle = lipgloss.NewStyle()
	milestoneStyle = lipgloss.NewStyle()
	tagStyle = lipgloss.NewStyle()
	barStyle = lipgloss.NewStyle()
	columnStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
}

// ColorDisabled reports whether the environment asks for plain output.
func ColorDisabled() bool {
	return termenv.EnvNoColor() || termenv.EnvColorProfile() == termenv.Ascii
}

// SheetTable renders a sheet with its own header, one line per row.
func SheetTable(w io.Writer, sh *sheet.Sheet) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%d rows)", sh.Name, sh.Len())))
	if len(sh.Header) == 0 {
		return
	}

	const pad, maxW = 2, 40
	widths := make([]int, len(sh.Header))
	for i, h := range sh.Header {
		widths[i] = lipgloss.Width(h) + pad
	}
	for r := range sh.Rows {
		for i := range sh.Header {
			widths[i] = max(widths[i], min(lipgloss.Width(sh.Cell(r, i))+pad, maxW))
		}
	}

	cells := make([]string, len(sh.Header))
	for i, h := range sh.Header {
		cells[i] = padRight(strings.ToUpper(h), widths[i])
	}
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(strings.Join(cells, ""), " ")))

	for r := range sh.Rows {
		for i := range sh.Header {
			v := truncate(sh.Cell(r, i), widths[i]-pad)
			if v == "" {
				v = dimStyle.Render("--")
			}
			cells[i] = padRight(v, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, ""), " "))
	}
}

// CardTable renders cards as a formatted task list.
func CardTable(w io.Writer, cards []board.Card, today date.Date) {
	if len(cards) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	const pad = 2
	idW, statusW, phaseW, titleW, ownerW := 4, 8, 6, 6, 7
	for _, c := range cards {
		idW = max(idW, len(c.ID)+pad)
		statusW = max(statusW, lipgloss.Width(c.Status)+pad)
		phaseW = max(phaseW, min(lipgloss.Width(c.Phase)+pad, 20))   //nolint:mnd // max phase column width
		titleW = max(titleW, min(lipgloss.Width(c.Title())+pad, 50)) //nolint:mnd // max title column width
		ownerW = max(ownerW, min(lipgloss.Width(c.Owner)+pad, 20))   //nolint:mnd // max owner column width
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %-5s %-5s %s",
		idW, "ID", statusW, "STATUS", phaseW, "PHASE", titleW, "TASK", ownerW, "OWNER",
		"DAYS", "DEP", "EXPECTED")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, c := range cards {
		title := truncate(c.Title(), titleW-pad)
		if c.IsMilestone() {
			title = milestoneStyle.Render(title)
		}
		row := fmt.Sprintf("%-*s %s %s %s %s %-5d %-5s %s",
			idW, c.ID,
			padRight(statusValue(c.Status), statusW),
			padRight(orDash(truncate(c.Phase, phaseW-pad)), phaseW),
			padRight(title, titleW),
			padRight(orDash(truncate(c.Owner, ownerW-pad)), ownerW),
			c.Duration,
			dashIfEmpty(c.Dependency),
			expectedValue(c, today))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// CardDetail renders a single task with full detail.
func CardDetail(w io.Writer, c board.Card, today date.Date) {
	titleLine := fmt.Sprintf("Task %s: %s", c.ID, c.Title())
	fmt.Fprintln(w, titleStyle.Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	printField(w, "Status", statusValue(c.Status))
	printField(w, "Phase", orDash(c.Phase))
	printField(w, "Milestone", orDash(c.Milestone))
	printField(w, "Task", orDash(c.Task))
	printField(w, "Owner", orDash(c.Owner))
	printField(w, "Duration", strconv.Itoa(c.Duration)+"d")
	printField(w, "Depends on", orDash(c.Dependency))
	if c.Start != nil {
		printField(w, "Start", c.Start.String())
	}
	printField(w, "Expected", expectedValue(c, today))
	if left, ok := c.DaysLeft(today); ok && !c.Done {
		printField(w, "Days left", strconv.Itoa(left))
	}
}

// OverviewTable renders a project summary as a formatted dashboard.
func OverviewTable(w io.Writer, s board.Overview) {
	fmt.Fprintln(w, titleStyle.Render(s.Project))
	finish := dimStyle.Render("--")
	if s.Finish != nil {
		finish = s.Finish.String()
	}
	fmt.Fprintf(w, "Total: %d tasks, %d milestones, %d overdue, finish %s\n\n",
		s.TotalTasks, s.Milestones, s.Overdue, finish)

	header := fmt.Sprintf("%-16s %6s %8s %8s", "STATUS", "COUNT", "WIP", "OVERDUE")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, ss := range s.Statuses {
		wip := dimStyle.Render("--")
		if ss.WIPLimit > 0 {
			wip = strconv.Itoa(ss.Count) + "/" + strconv.Itoa(ss.WIPLimit)
		}
		const statusColW = 16
		fmt.Fprintf(w, "%s %6d %s %8d\n",
			padRight(statusValue(ss.Status), statusColW),
			ss.Count, padLeft(wip, 8), ss.Overdue) //nolint:mnd // column width
	}
}

// GroupedTable renders a grouped board view with per-group status breakdowns.
func GroupedTable(w io.Writer, gs board.GroupedSummary) {
	if len(gs.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No groups found.")
		return
	}

	for i, g := range gs.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := fmt.Sprintf("%s (%d tasks)", g.Key, g.Total)
		fmt.Fprintln(w, titleStyle.Render(title))

		for _, ss := range g.Statuses {
			if ss.Count == 0 {
				continue
			}
			const groupStatusW = 16
			fmt.Fprintf(w, "  %s %d\n", padRight(statusValue(ss.Status), groupStatusW), ss.Count)
		}
	}
}

// KanbanTable renders status columns side by side.
func KanbanTable(w io.Writer, project string, cols []board.Column, today date.Date) {
	fmt.Fprintln(w, titleStyle.Render(project))

	const cardW = 24
	blocks := make([]string, 0, len(cols))
	for _, col := range cols {
		count := fmt.Sprintf(" (%d)", len(col.Cards))
		if col.WIPLimit > 0 {
			count = fmt.Sprintf(" (%d/%d)", len(col.Cards), col.WIPLimit)
		}
		lines := []string{statusValue(col.Status) + dimStyle.Render(count), ""}
		if len(col.Cards) == 0 {
			lines = append(lines, dimStyle.Render("(empty)"))
		}
		for _, c := range col.Cards {
			lines = append(lines, truncate(c.ID+" "+c.Title(), cardW))
			if c.Expected != nil {
				lines = append(lines, "  "+expectedValue(c, today))
			}
		}
		blocks = append(blocks, columnStyle.Width(cardW+2).Render(strings.Join(lines, "\n"))) //nolint:mnd // padding
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
}

// TimelineTable renders the timeline as a dated list.
func TimelineTable(w io.Writer, items []board.TimelineItem, today date.Date) {
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}
	header := fmt.Sprintf("%-10s %-10s %-5s %-6s %-12s %s", "START", "EXPECTED", "DAYS", "ID", "STATUS", "TASK")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, it := range items {
		start := dimStyle.Render("--")
		if it.Start != nil {
			start = it.Start.String()
		}
		title := it.Title()
		if it.IsMilestone() {
			title = milestoneStyle.Render("◆ " + it.Milestone)
		}
		fmt.Fprintf(w, "%s %s %-5d %-6s %s %s\n",
			padRight(start, 10), padRight(expectedValue(it.Card, today), 10), //nolint:mnd // date width
			it.Duration, it.ID, padRight(statusValue(it.Status), 12), title) //nolint:mnd // status width
	}
}

// Gantt renders a text Gantt chart scaled to width columns. Tasks without
// a known date are listed below the chart.
func Gantt(w io.Writer, items []board.TimelineItem, today date.Date, width int) {
	first, last, ok := board.Span(items)
	if !ok {
		fmt.Fprintln(os.Stderr, "No dated tasks to chart.")
		return
	}
	const labelW, minWidth = 28, 10
	width = max(width-labelW-1, minWidth)

	days := first.DaysUntil(last) + 1
	perCol := max((days+width-1)/width, 1)
	cols := (days + perCol - 1) / perCol

	axis := fmt.Sprintf("%-*s %s", labelW, "", first.String())
	if end := last.String(); cols > len(first.String())+len(end) {
		axis = fmt.Sprintf("%-*s %s%*s", labelW, "", first.String(), cols-len(first.String()), end)
	}
	fmt.Fprintln(w, headerStyle.Render(axis))

	todayCol := -1
	if !today.Before(first) && !last.Before(today) {
		todayCol = first.DaysUntil(today) / perCol
	}

	var undated []string
	for _, it := range items {
		if it.Expected == nil {
			undated = append(undated, it.ID)
			continue
		}
		from := first.DaysUntil(*it.Start) / perCol
		to := max(first.DaysUntil(*it.Expected)/perCol, from)

		var bar strings.Builder
		for col := range cols {
			switch {
			case it.IsMilestone() && col == to:
				bar.WriteString("◆")
			case col >= from && col <= to:
				bar.WriteString("█")
			case col == todayCol:
				bar.WriteString("│")
			default:
				bar.WriteString("·")
			}
		}
		style := barStyle
		if it.Overdue {
			style = overdueStyle
		} else if it.Done {
			style = dimStyle
		}
		label := truncate(it.ID+" "+it.Title(), labelW)
		fmt.Fprintf(w, "%s %s\n", padRight(label, labelW), style.Render(bar.String()))
	}
	if len(undated) > 0 {
		fmt.Fprintln(w, dimStyle.Render("no date: "+strings.Join(undated, ", ")))
	}
}

// MatrixTable renders milestones against projects.
func MatrixTable(w io.Writer, m board.Matrix) {
	if len(m.Rows) == 0 {
		fmt.Fprintln(os.Stderr, "No projects found.")
		return
	}

	const pad = 2
	projW := len("PROJECT") + pad
	for _, r := range m.Rows {
		projW = max(projW, lipgloss.Width(r.Project)+pad)
	}
	colW := make([]int, len(m.Milestones))
	for i, ms := range m.Milestones {
		colW[i] = max(min(lipgloss.Width(ms), 18)+pad, 12) //nolint:mnd // milestone column bounds
	}

	head := padRight("PROJECT", projW)
	for i, ms := range m.Milestones {
		head += padRight(strings.ToUpper(truncate(ms, colW[i]-pad)), colW[i])
	}
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(head, " ")))

	for _, r := range m.Rows {
		line := padRight(r.Project, projW)
		for i, cell := range r.Cells {
			line += padRight(matrixCell(cell), colW[i])
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func matrixCell(c board.MatrixCell) string {
	switch {
	case !c.Present:
		return dimStyle.Render("·")
	case c.Expected == nil:
		return statusValue(c.Status)
	case c.Overdue:
		return overdueStyle.Render(c.Expected.String())
	default:
		if st, ok := statusStyles[strings.ToLower(c.Status)]; ok {
			return st.Render(c.Expected.String())
		}
		return c.Expected.String()
	}
}

// ChangesTable renders the dates a resolution pass moved.
func ChangesTable(w io.Writer, res schedule.Result) {
	switch {
	case res.Aborted:
		msg := "Resolve skipped: " + res.Reason
		if len(res.Missing) > 0 {
			missing := make([]string, len(res.Missing))
			for i, r := range res.Missing {
				missing[i] = string(r)
			}
			msg += " (" + strings.Join(missing, ", ") + ")"
		}
		fmt.Fprintln(w, dimStyle.Render(msg))
		return
	case len(res.Changes) == 0:
		fmt.Fprintln(w, dimStyle.Render("No dates changed."))
	default:
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-6s %-10s %s", "ID", "OLD", "NEW")))
		for _, c := range res.Changes {
			fmt.Fprintf(w, "%-6s %s %s\n", c.ID, padRight(orDash(c.Old), 10), c.New) //nolint:mnd // date width
		}
	}
	if res.Cycle {
		fmt.Fprintln(w, overdueStyle.Render("Warning: dependency cycle through "+string(res.Root)))
	}
}

// ContactTable renders the address book.
func ContactTable(w io.Writer, contacts []contact.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(os.Stderr, "No contacts found.")
		return
	}
	const pad = 2
	nameW, emailW, companyW := 6, 7, 9
	for _, c := range contacts {
		nameW = max(nameW, lipgloss.Width(c.Name)+pad)
		emailW = max(emailW, len(c.Email)+pad)
		companyW = max(companyW, min(lipgloss.Width(c.Company)+pad, 24)) //nolint:mnd // max company width
	}
	header := fmt.Sprintf("%-8s %-*s %-*s %-*s %s", "ID", nameW, "NAME", emailW, "EMAIL", companyW, "COMPANY", "TAGS")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, c := range contacts {
		tags := dimStyle.Render("--")
		if len(c.Tags) > 0 {
			tags = tagStyle.Render(strings.Join(c.Tags, ", "))
		}
		fmt.Fprintf(w, "%-8s %s %s %s %s\n",
			c.ID.String()[:8], padRight(c.Name, nameW), padRight(orDash(c.Email), emailW),
			padRight(orDash(truncate(c.Company, companyW-pad)), companyW), tags)
	}
}

// LogTable renders activity log entries.
func LogTable(w io.Writer, entries []workbook.LogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No activity.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-16s %-12s %-16s %-6s %s", "TIME", "ACTION", "PROJECT", "TASK", "DETAIL")))
	for _, e := range entries {
		fmt.Fprintf(w, "%-16s %-12s %s %-6s %s\n",
			e.Timestamp.Format("2006-01-02 15:04"), e.Action,
			padRight(orDash(truncate(e.Project, 15)), 16), dashIfEmpty(e.TaskID), e.Detail) //nolint:mnd // project width
	}
}

// StatusLegend lists the configured statuses in board order.
func StatusLegend(w io.Writer, cfg *config.Config) {
	parts := make([]string, 0, len(cfg.Statuses))
	for _, s := range cfg.Statuses {
		name := statusValue(s.Name)
		if s.Done {
			name += dimStyle.Render(" (done)")
		}
		parts = append(parts, name)
	}
	fmt.Fprintln(w, strings.Join(parts, " → "))
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

func expectedValue(c board.Card, today date.Date) string {
	if c.Expected == nil {
		return dimStyle.Render("--")
	}
	if c.IsOverdue(today) {
		return overdueStyle.Render(c.Expected.String())
	}
	return c.Expected.String()
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func padLeft(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return strings.Repeat(" ", width-visible) + s
}

// truncate shortens s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= 3 { //nolint:mnd // room for "..."
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "--"
	}
	return s
}

// statusValue renders a status with its palette color, matched
// case-insensitively.
func statusValue(s string) string {
	if st, ok := statusStyles[strings.ToLower(s)]; ok {
		return st.Render(s)
	}
	return s
}
