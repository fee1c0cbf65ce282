package board

import (
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/date"
)

// FilterOptions defines which cards to include.
type FilterOptions struct {
	Statuses        []string
	ExcludeStatuses []string // statuses to exclude from results
	Phase           string
	Owner           string
	Search          string // case-insensitive substring match across task, milestone, phase and owner
	MilestonesOnly  bool
	OverdueOnly     bool
	Today           date.Date // reference day for OverdueOnly
}

// Filter returns cards matching all specified criteria (AND logic).
func Filter(cards []Card, opts FilterOptions) []Card {
	var result []Card
	for _, c := range cards {
		if matchesFilter(c, opts) {
			result = append(result, c)
		}
	}
	return result
}

func matchesFilter(c Card, opts FilterOptions) bool {
	if !matchesStatus(c.Status, opts.Statuses, opts.ExcludeStatuses) {
		return false
	}
	if opts.Phase != "" && !strings.EqualFold(c.Phase, opts.Phase) {
		return false
	}
	if opts.Owner != "" && !strings.EqualFold(c.Owner, opts.Owner) {
		return false
	}
	if opts.MilestonesOnly && !c.IsMilestone() {
		return false
	}
	if opts.OverdueOnly && !c.IsOverdue(opts.Today) {
		return false
	}
	if opts.Search != "" && !matchesSearch(c, opts.Search) {
		return false
	}
	return true
}

func matchesStatus(status string, include, exclude []string) bool {
	if len(include) > 0 && !containsFold(include, status) {
		return false
	}
	if len(exclude) > 0 && containsFold(exclude, status) {
		return false
	}
	return true
}

func matchesSearch(c Card, query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{c.Task, c.Milestone, c.Phase, c.Owner, c.ID} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func containsFold(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
