package board

import (
	"sort"

	"github.com/twiced-technology-gmbh/plantrack/internal/date"
)

// TimelineItem is one bar of the timeline.
type TimelineItem struct {
	Card
	Overdue  bool `json:"overdue"`
	DaysLeft *int `json:"days_left,omitempty"`
}

// Timeline orders cards by expected date, unknown dates last and ties in
// row order.
func Timeline(cards []Card, today date.Date, milestonesOnly bool) []TimelineItem {
	items := make([]TimelineItem, 0, len(cards))
	for _, c := range cards {
		if milestonesOnly && !c.IsMilestone() {
			continue
		}
		item := TimelineItem{Card: c, Overdue: c.IsOverdue(today)}
		if left, ok := c.DaysLeft(today); ok {
			item.DaysLeft = &left
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return compareExpected(items[i].Card, items[j].Card)
	})
	return items
}

// Span returns the earliest start and the latest expected date across
// items with known dates.
func Span(items []TimelineItem) (first, last date.Date, ok bool) {
	for _, it := range items {
		if it.Expected == nil {
			continue
		}
		if !ok || it.Start.Before(first) {
			first = *it.Start
		}
		if !ok || last.Before(*it.Expected) {
			last = *it.Expected
		}
		ok = true
	}
	return first, last, ok
}
