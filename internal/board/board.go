// Package board provides Kanban, timeline and summary views over project
// sheets.
package board

import (
	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/config"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
)

// StatusSummary holds metrics for a single status column.
type StatusSummary struct {
	Status   string `json:"status"`
	Count    int    `json:"count"`
	WIPLimit int    `json:"wip_limit,omitempty"`
	Overdue  int    `json:"overdue"`
}

// Overview is the aggregate view of one project.
type Overview struct {
	Project    string          `json:"project"`
	TotalTasks int             `json:"total_tasks"`
	Milestones int             `json:"milestones"`
	Overdue    int             `json:"overdue"`
	Statuses   []StatusSummary `json:"statuses"`
	Finish     *date.Date      `json:"finish,omitempty"`
}

// Summary computes per-status counts, overdue tasks and the latest
// expected date.
func Summary(cfg *config.Config, project string, cards []Card, today date.Date) Overview {
	names := cfg.StatusNames()
	statusMap := make(map[string]*StatusSummary, len(names))
	for _, s := range names {
		statusMap[s] = &StatusSummary{Status: s, WIPLimit: cfg.WIPLimit(s)}
	}

	ov := Overview{Project: project, TotalTasks: len(cards)}
	var extra []string
	for _, c := range cards {
		ss, ok := statusMap[c.Status]
		if !ok {
			ss = &StatusSummary{Status: c.Status}
			statusMap[c.Status] = ss
			extra = append(extra, c.Status)
		}
		ss.Count++
		if c.IsOverdue(today) {
			ss.Overdue++
			ov.Overdue++
		}
		if c.IsMilestone() {
			ov.Milestones++
		}
		if c.Expected != nil && (ov.Finish == nil || ov.Finish.Before(*c.Expected)) {
			d := *c.Expected
			ov.Finish = &d
		}
	}

	for _, s := range append(names, extra...) {
		ov.Statuses = append(ov.Statuses, *statusMap[s])
	}
	return ov
}

// CountByStatus returns the number of cards in each status.
func CountByStatus(cards []Card) map[string]int {
	counts := make(map[string]int)
	for _, c := range cards {
		counts[c.Status]++
	}
	return counts
}

// CheckWIPLimit verifies that moving a card into targetStatus would not
// exceed the WIP limit. currentStatus is the card's status before the move.
func CheckWIPLimit(cfg *config.Config, statusCounts map[string]int, targetStatus, currentStatus string) error {
	limit := cfg.WIPLimit(targetStatus)
	if limit == 0 {
		return nil
	}

	// If the card is already in the target status, it doesn't add to the count.
	if currentStatus == targetStatus {
		return nil
	}

	count := statusCounts[targetStatus]
	if count >= limit {
		return clierr.Newf(clierr.WIPLimitExceeded,
			"WIP limit reached for %q (%d/%d)", targetStatus, count, limit).
			WithDetails(map[string]any{
				"status":  targetStatus,
				"limit":   limit,
				"current": count,
			})
	}
	return nil
}
