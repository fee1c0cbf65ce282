package board

import (
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/config"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

// MatrixCell is one project's state for one milestone.
type MatrixCell struct {
	Present  bool       `json:"present"`
	Expected *date.Date `json:"expected,omitempty"`
	Status   string     `json:"status,omitempty"`
	Overdue  bool       `json:"overdue,omitempty"`
}

// MatrixRow holds one project's cells in milestone order.
type MatrixRow struct {
	Project string       `json:"project"`
	Cells   []MatrixCell `json:"cells"`
}

// Matrix is the cross-project milestone summary.
type Matrix struct {
	Milestones []string    `json:"milestones"`
	Rows       []MatrixRow `json:"rows"`
}

// BuildMatrix lays out milestones in template order, followed by any
// milestone that only appears in a project, against every project.
func BuildMatrix(cfg *config.Config, template *sheet.Sheet, projects []*sheet.Sheet, today date.Date) Matrix {
	var m Matrix
	seen := map[string]bool{}
	addMilestones := func(cards []Card) {
		for _, c := range cards {
			key := strings.ToLower(c.Milestone)
			if c.IsMilestone() && !seen[key] {
				seen[key] = true
				m.Milestones = append(m.Milestones, c.Milestone)
			}
		}
	}

	if template != nil {
		addMilestones(Cards(cfg, template))
	}
	projectCards := make([][]Card, len(projects))
	for i, p := range projects {
		projectCards[i] = Cards(cfg, p)
		addMilestones(projectCards[i])
	}

	for i, p := range projects {
		row := MatrixRow{Project: p.Name, Cells: make([]MatrixCell, len(m.Milestones))}
		for col, name := range m.Milestones {
			for _, c := range projectCards[i] {
				if strings.EqualFold(c.Milestone, name) {
					row.Cells[col] = MatrixCell{
						Present:  true,
						Expected: c.Expected,
						Status:   c.Status,
						Overdue:  c.IsOverdue(today),
					}
					break
				}
			}
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}
