package schedule

import (
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

// TaskID identifies a row within one sheet. IDs are compared as trimmed
// strings so "7" typed by hand and 7 imported from JSON are the same task.
type TaskID string

// NewTaskID normalizes a raw cell value into a TaskID.
func NewTaskID(raw string) TaskID {
	return TaskID(strings.TrimSpace(raw))
}

// Record is the working view of one row during a pass.
type Record struct {
	ID         TaskID
	Row        int
	Duration   int
	Dependency TaskID
	Date       date.Date
	Known      bool
}

// Index is the per-pass lookup from task ID to record, plus the reverse
// edges used by forward propagation.
type Index struct {
	byID       map[TaskID]*Record
	order      []*Record
	dependents map[TaskID][]*Record
	duplicates []TaskID
}

// BuildIndex reads every row with a non-empty ID. Duplicate IDs keep the
// first row; later ones are reported by Duplicates.
func BuildIndex(s *sheet.Sheet, roles Roles) *Index {
	ix := &Index{
		byID:       make(map[TaskID]*Record, s.Len()),
		dependents: make(map[TaskID][]*Record),
	}
	idCol, durCol, depCol, dateCol := roles[RoleID], roles[RoleDuration], roles[RoleDependency], roles[RoleExpectedDate]

	for row := range s.Rows {
		id := NewTaskID(s.Cell(row, idCol))
		if id == "" {
			continue
		}
		if _, exists := ix.byID[id]; exists {
			ix.duplicates = append(ix.duplicates, id)
			continue
		}
		d, known := date.ParseOptional(s.Cell(row, dateCol))
		rec := &Record{
			ID:         id,
			Row:        row,
			Duration:   ParseDuration(s.Cell(row, durCol)),
			Dependency: NewTaskID(s.Cell(row, depCol)),
			Date:       d,
			Known:      known,
		}
		ix.byID[id] = rec
		ix.order = append(ix.order, rec)
	}

	for _, rec := range ix.order {
		if rec.Dependency != "" {
			ix.dependents[rec.Dependency] = append(ix.dependents[rec.Dependency], rec)
		}
	}
	return ix
}

// Get returns the record for id.
func (ix *Index) Get(id TaskID) (*Record, bool) {
	rec, ok := ix.byID[id]
	return rec, ok
}

// Dependents returns the records that name id as their dependency, in row
// order.
func (ix *Index) Dependents(id TaskID) []*Record {
	return ix.dependents[id]
}

// Records returns all indexed records in row order.
func (ix *Index) Records() []*Record {
	return ix.order
}

// Duplicates returns IDs that appeared on more than one row.
func (ix *Index) Duplicates() []TaskID {
	return ix.duplicates
}

// Len returns the number of indexed tasks.
func (ix *Index) Len() int {
	return len(ix.order)
}

// ParseDuration reads a day count the lenient way spreadsheet users type
// it: leading digits count ("5 dias" is 5), anything else is 0.
func ParseDuration(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0
	}
	return n
}
