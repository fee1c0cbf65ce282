package board

import (
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/config"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/schedule"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

// Card is one project row viewed through the configured columns.
type Card struct {
	Row        int        `json:"row"`
	ID         string     `json:"id"`
	Phase      string     `json:"phase,omitempty"`
	Milestone  string     `json:"milestone,omitempty"`
	Task       string     `json:"task,omitempty"`
	Owner      string     `json:"owner,omitempty"`
	Status     string     `json:"status"`
	Done       bool       `json:"done"`
	Duration   int        `json:"duration"`
	Dependency string     `json:"dependency,omitempty"`
	Expected   *date.Date `json:"expected,omitempty"`
	Start      *date.Date `json:"start,omitempty"`
}

// Title is the text shown for the card.
func (c Card) Title() string {
	switch {
	case c.Task != "":
		return c.Task
	case c.Milestone != "":
		return c.Milestone
	default:
		return c.ID
	}
}

// IsMilestone reports whether the row marks a milestone.
func (c Card) IsMilestone() bool {
	return c.Milestone != ""
}

// IsOverdue reports whether the expected date has passed on an unfinished
// task.
func (c Card) IsOverdue(today date.Date) bool {
	return c.Expected != nil && !c.Done && c.Expected.Before(today)
}

// DaysLeft returns the days until the expected date, or false when it is
// unknown.
func (c Card) DaysLeft(today date.Date) (int, bool) {
	if c.Expected == nil {
		return 0, false
	}
	return today.DaysUntil(*c.Expected), true
}

// columnLookup resolves optional columns, returning "" for absent ones.
type columnLookup struct {
	sh  *sheet.Sheet
	idx map[string]int
}

func newColumnLookup(sh *sheet.Sheet, cfg *config.Config) columnLookup {
	l := columnLookup{sh: sh, idx: map[string]int{}}
	for _, name := range []string{cfg.Columns.Status, cfg.Columns.Phase, cfg.Columns.Milestone, cfg.Columns.Task, cfg.Columns.Owner} {
		l.idx[name] = sh.ColumnIndex(name)
	}
	for role, col := range schedule.DetectRoles(sh.Header) {
		l.idx[string(role)] = col
	}
	return l
}

func (l columnLookup) get(row int, name string) string {
	col, ok := l.idx[name]
	if !ok || col < 0 {
		return ""
	}
	return strings.TrimSpace(l.sh.Cell(row, col))
}

// Cards builds a card for every row of sh, in row order. Empty status
// cells take the default status; unknown statuses are kept verbatim.
func Cards(cfg *config.Config, sh *sheet.Sheet) []Card {
	l := newColumnLookup(sh, cfg)
	cards := make([]Card, 0, sh.Len())
	for row := range sh.Rows {
		raw := l.get(row, cfg.Columns.Status)
		status, ok := cfg.NormalizeStatus(raw)
		if !ok {
			status = raw
		}
		c := Card{
			Row:        row,
			ID:         l.get(row, string(schedule.RoleID)),
			Phase:      l.get(row, cfg.Columns.Phase),
			Milestone:  l.get(row, cfg.Columns.Milestone),
			Task:       l.get(row, cfg.Columns.Task),
			Owner:      l.get(row, cfg.Columns.Owner),
			Status:     status,
			Done:       cfg.IsTerminalStatus(status),
			Duration:   schedule.ParseDuration(l.get(row, string(schedule.RoleDuration))),
			Dependency: l.get(row, string(schedule.RoleDependency)),
		}
		if d, ok := date.ParseOptional(l.get(row, string(schedule.RoleExpectedDate))); ok {
			start := d.AddDays(-c.Duration)
			c.Expected, c.Start = &d, &start
		}
		cards = append(cards, c)
	}
	return cards
}

// FindCard returns the card with the given ID.
func FindCard(cards []Card, id string) (Card, bool) {
	id = strings.TrimSpace(id)
	for _, c := range cards {
		if c.ID == id && id != "" {
			return c, true
		}
	}
	return Card{}, false
}
