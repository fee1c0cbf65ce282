package board

import (
	"sort"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/config"
)

const (
	fieldStatus    = "status"
	fieldPhase     = "phase"
	fieldOwner     = "owner"
	fieldMilestone = "milestone"
)

// ValidSortFields returns the list of valid --sort field names.
func ValidSortFields() []string {
	return []string{"row", "id", "date", fieldStatus, fieldPhase, fieldOwner, "duration"}
}

// Sort sorts cards by the given field. Status follows the configured
// column order; unknown expected dates sort last.
func Sort(cards []Card, field string, reverse bool, cfg *config.Config) {
	sort.SliceStable(cards, func(i, j int) bool {
		if reverse {
			return compareCards(cards[j], cards[i], field, cfg)
		}
		return compareCards(cards[i], cards[j], field, cfg)
	})
}

func compareCards(a, b Card, field string, cfg *config.Config) bool {
	switch field {
	case "id":
		return lessID(a.ID, b.ID)
	case "date":
		return compareExpected(a, b)
	case fieldStatus:
		return statusRank(cfg, a.Status) < statusRank(cfg, b.Status)
	case fieldPhase:
		return strings.ToLower(a.Phase) < strings.ToLower(b.Phase)
	case fieldOwner:
		return strings.ToLower(a.Owner) < strings.ToLower(b.Owner)
	case "duration":
		return a.Duration < b.Duration
	default:
		return a.Row < b.Row
	}
}

// statusRank puts unknown statuses after the configured ones.
func statusRank(cfg *config.Config, status string) int {
	if i := cfg.StatusIndex(status); i >= 0 {
		return i
	}
	return len(cfg.Statuses)
}

// lessID orders numeric IDs numerically and everything else as text.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

func compareExpected(a, b Card) bool {
	if a.Expected == nil && b.Expected == nil {
		return false
	}
	if a.Expected == nil {
		return false // nil sorts last
	}
	if b.Expected == nil {
		return true
	}
	return a.Expected.Before(*b.Expected)
}
