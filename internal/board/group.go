package board

import (
	"sort"
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/config"
)

// Column is one Kanban column.
type Column struct {
	Status   string `json:"status"`
	WIPLimit int    `json:"wip_limit,omitempty"`
	Done     bool   `json:"done,omitempty"`
	Cards    []Card `json:"cards"`
}

// Kanban distributes cards into the configured status columns, in row
// order. Cards with a status the config does not know get trailing
// columns of their own.
func Kanban(cfg *config.Config, cards []Card) []Column {
	cols := make([]Column, 0, len(cfg.Statuses))
	index := make(map[string]int, len(cfg.Statuses))
	for _, s := range cfg.Statuses {
		index[s.Name] = len(cols)
		cols = append(cols, Column{Status: s.Name, WIPLimit: cfg.WIPLimit(s.Name), Done: s.Done, Cards: []Card{}})
	}
	for _, c := range cards {
		i, ok := index[c.Status]
		if !ok {
			i = len(cols)
			index[c.Status] = i
			cols = append(cols, Column{Status: c.Status, Cards: []Card{}})
		}
		cols[i].Cards = append(cols[i].Cards, c)
	}
	return cols
}

// GroupedSummary holds cards grouped by a field.
type GroupedSummary struct {
	Field  string         `json:"field"`
	Groups []GroupSummary `json:"groups"`
}

// GroupSummary is one group within a grouped view.
type GroupSummary struct {
	Key      string          `json:"key"`
	Statuses []StatusSummary `json:"statuses"`
	Total    int             `json:"total"`
}

// GroupBy groups cards by the specified field and returns summaries per group.
func GroupBy(cards []Card, field string, cfg *config.Config) GroupedSummary {
	groups := make(map[string][]Card)
	for _, c := range cards {
		key := extractGroupKey(c, field)
		groups[key] = append(groups[key], c)
	}

	result := GroupedSummary{Field: field, Groups: make([]GroupSummary, 0, len(groups))}
	for _, key := range sortGroupKeys(groups, field, cfg) {
		groupCards := groups[key]
		result.Groups = append(result.Groups, GroupSummary{
			Key:      key,
			Statuses: groupStatusSummary(groupCards, cfg),
			Total:    len(groupCards),
		})
	}
	return result
}

func extractGroupKey(c Card, field string) string {
	var key string
	switch field {
	case fieldPhase:
		key = c.Phase
	case fieldOwner:
		key = c.Owner
	case fieldMilestone:
		key = c.Milestone
	case fieldStatus:
		key = c.Status
	default:
		return "(all)"
	}
	if key == "" {
		return "(" + field + " vacío)"
	}
	return key
}

func sortGroupKeys(groups map[string][]Card, field string, cfg *config.Config) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}

	switch field {
	case fieldStatus:
		sort.SliceStable(keys, func(i, j int) bool {
			return statusRank(cfg, keys[i]) < statusRank(cfg, keys[j])
		})
	case fieldPhase, fieldMilestone:
		// Phases and milestones keep sheet order.
		first := make(map[string]int, len(groups))
		for k, cards := range groups {
			first[k] = cards[0].Row
		}
		sort.SliceStable(keys, func(i, j int) bool { return first[keys[i]] < first[keys[j]] })
	default:
		sort.Slice(keys, func(i, j int) bool { return strings.ToLower(keys[i]) < strings.ToLower(keys[j]) })
	}
	return keys
}

func groupStatusSummary(cards []Card, cfg *config.Config) []StatusSummary {
	counts := CountByStatus(cards)
	names := cfg.StatusNames()
	statuses := make([]StatusSummary, 0, len(names))
	for _, s := range names {
		statuses = append(statuses, StatusSummary{
			Status:   s,
			Count:    counts[s],
			WIPLimit: cfg.WIPLimit(s),
		})
	}
	return statuses
}

// ValidGroupByFields returns the list of valid --group-by field names.
func ValidGroupByFields() []string {
	return []string{fieldPhase, fieldOwner, fieldMilestone, fieldStatus}
}
