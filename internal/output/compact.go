package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/board"
	"github.com/twiced-technology-gmbh/plantrack/internal/contact"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/mail"
	"github.com/twiced-technology-gmbh/plantrack/internal/schedule"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

// CardCompact renders cards in one-line-per-record compact format.
func CardCompact(w io.Writer, cards []board.Card, today date.Date) {
	if len(cards) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, c := range cards {
		fmt.Fprintln(w, formatCardLine(c, today))
	}
}

// SheetCompact renders each row as header=value pairs.
func SheetCompact(w io.Writer, sh *sheet.Sheet) {
	fmt.Fprintf(w, "%s (%d rows)\n", sh.Name, sh.Len())
	for r := range sh.Rows {
		parts := make([]string, 0, len(sh.Header))
		for i, h := range sh.Header {
			if v := sh.Cell(r, i); v != "" {
				parts = append(parts, h+"="+v)
			}
		}
		fmt.Fprintln(w, "  "+strings.Join(parts, " "))
	}
}

// OverviewCompact renders a project summary in compact format.
func OverviewCompact(w io.Writer, s board.Overview) {
	line := fmt.Sprintf("%s (%d tasks, %d milestones", s.Project, s.TotalTasks, s.Milestones)
	if s.Finish != nil {
		line += ", finish " + s.Finish.String()
	}
	fmt.Fprintln(w, line+")")

	for _, ss := range s.Statuses {
		line := "  " + ss.Status + ": " + strconv.Itoa(ss.Count)
		if ss.WIPLimit > 0 {
			line += "/" + strconv.Itoa(ss.WIPLimit)
		}
		if ss.Overdue > 0 {
			line += " (" + strconv.Itoa(ss.Overdue) + " overdue)"
		}
		fmt.Fprintln(w, line)
	}
}

// TimelineCompact renders one line per timeline item.
func TimelineCompact(w io.Writer, items []board.TimelineItem, today date.Date) {
	for _, it := range items {
		line := formatCardLine(it.Card, today)
		if it.DaysLeft != nil && !it.Done {
			line += " left:" + strconv.Itoa(*it.DaysLeft) + "d"
		}
		fmt.Fprintln(w, line)
	}
}

// MatrixCompact renders one line per project.
func MatrixCompact(w io.Writer, m board.Matrix) {
	for _, r := range m.Rows {
		parts := make([]string, 0, len(r.Cells))
		for i, c := range r.Cells {
			if !c.Present {
				continue
			}
			v := "--"
			if c.Expected != nil {
				v = c.Expected.String()
			}
			if c.Overdue {
				v += "!"
			}
			parts = append(parts, m.Milestones[i]+"="+v)
		}
		fmt.Fprintf(w, "%s: %s\n", r.Project, strings.Join(parts, " "))
	}
}

// ChangesCompact renders resolver changes as id:old->new.
func ChangesCompact(w io.Writer, res schedule.Result) {
	if res.Aborted {
		fmt.Fprintln(w, "skipped: "+res.Reason)
		return
	}
	parts := make([]string, 0, len(res.Changes))
	for _, c := range res.Changes {
		parts = append(parts, fmt.Sprintf("%s:%s->%s", c.ID, dashIfEmpty(c.Old), c.New))
	}
	line := "root " + string(res.Root) + ", " + strconv.Itoa(len(res.Changes)) + " changed"
	if len(parts) > 0 {
		line += ": " + strings.Join(parts, " ")
	}
	fmt.Fprintln(w, line)
}

// ContactCompact renders one contact per line.
func ContactCompact(w io.Writer, contacts []contact.Contact) {
	for _, c := range contacts {
		line := c.ID.String()[:8] + " " + c.String()
		if len(c.Tags) > 0 {
			line += " (" + strings.Join(c.Tags, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
}

// EmailList renders email template names and subjects.
func EmailList(w io.Writer, templates []*mail.Template) {
	if len(templates) == 0 {
		fmt.Fprintln(os.Stderr, "No email templates found.")
		return
	}
	for _, t := range templates {
		to := ""
		if len(t.To) > 0 {
			to = " to:" + strings.Join(t.To, ",")
		}
		fmt.Fprintf(w, "%s: %s%s\n", t.Name, t.Subject, to)
	}
}

// MessageSummary renders the headers of a rendered message plus any
// substitution or recipient warnings.
func MessageSummary(w io.Writer, m *mail.Message) {
	printField(w, "Subject", m.Subject)
	printField(w, "To", orDash(strings.Join(m.To, ", ")))
	if len(m.Cc) > 0 {
		printField(w, "Cc", strings.Join(m.Cc, ", "))
	}
	if len(m.Unknown) > 0 {
		printField(w, "Unknown", overdueStyle.Render(strings.Join(m.Unknown, ", ")))
	}
	if len(m.NoEmail) > 0 {
		printField(w, "No email", strings.Join(m.NoEmail, ", "))
	}
	if len(m.UnmatchedTag) > 0 {
		printField(w, "No match", strings.Join(m.UnmatchedTag, ", "))
	}
}

// formatCardLine builds the one-line representation of a card.
func formatCardLine(c board.Card, today date.Date) string {
	line := c.ID + " [" + c.Status + "] " + c.Title()
	if c.Phase != "" {
		line += " (" + c.Phase + ")"
	}
	if c.Owner != "" {
		line += " @" + c.Owner
	}
	if c.Dependency != "" {
		line += " after:" + c.Dependency
	}
	if c.Expected != nil {
		line += " due:" + c.Expected.String()
		if c.IsOverdue(today) {
			line += "!"
		}
	}
	return line
}
