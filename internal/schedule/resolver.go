package schedule

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

// Abort reasons reported in Result.Reason.
const (
	ReasonMissingRoles  = "missing column roles"
	ReasonRowOutOfRange = "row out of range"
	ReasonNoTaskID      = "row has no task id"
)

// PersistFunc durably saves a sheet after a pass.
type PersistFunc func(s *sheet.Sheet) error

// RefreshFunc is told that a pass finished so views keyed on expected
// dates can redraw.
type RefreshFunc func(s *sheet.Sheet, res Result)

// Result describes what a pass did.
type Result struct {
	Project string   `json:"project"`
	Row     int      `json:"row"`
	ID      TaskID   `json:"id,omitempty"`
	Root    TaskID   `json:"root,omitempty"`
	Cycle   bool     `json:"cycle,omitempty"`
	Changes []Change `json:"changes"`
	Aborted bool     `json:"aborted,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	Missing []Role   `json:"missing,omitempty"`
}

// Changed reports whether any expected date moved.
func (r Result) Changed() bool {
	return len(r.Changes) > 0
}

// Resolver runs resolution passes. The zero value is usable: it logs
// nowhere and neither persists nor refreshes.
type Resolver struct {
	Logger  *slog.Logger
	Persist PersistFunc
	Refresh RefreshFunc
}

// New returns a Resolver wired to the given side effects. Either callback
// may be nil.
func New(logger *slog.Logger, persist PersistFunc, refresh RefreshFunc) *Resolver {
	return &Resolver{Logger: logger, Persist: persist, Refresh: refresh}
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Resolve recomputes dates around the task on the given row. Precondition
// failures come back as an aborted Result with a nil error and leave the
// sheet untouched; only a failing Persist returns an error. Persist and
// Refresh each run once per pass that was not aborted.
func (r *Resolver) Resolve(s *sheet.Sheet, row int) (Result, error) {
	log := r.logger().With("sheet", s.Name, "row", row)
	res := Result{Project: s.Name, Row: row, Changes: []Change{}}

	roles := DetectRoles(s.Header)
	if missing := roles.Missing(); len(missing) > 0 {
		log.Warn("resolve aborted: "+ReasonMissingRoles,
			"found", rolesString(roles.Found()), "missing", rolesString(missing))
		res.Aborted, res.Reason, res.Missing = true, ReasonMissingRoles, missing
		return res, nil
	}
	if row < 0 || row >= s.Len() {
		log.Warn("resolve aborted: " + ReasonRowOutOfRange)
		res.Aborted, res.Reason = true, ReasonRowOutOfRange
		return res, nil
	}

	ix := BuildIndex(s, roles)
	for _, dup := range ix.Duplicates() {
		log.Warn("duplicate task id, first row wins", "id", dup)
	}

	id := NewTaskID(s.Cell(row, roles[RoleID]))
	rec, ok := ix.Get(id)
	if id == "" || !ok || rec.Row != row {
		log.Warn("resolve aborted: "+ReasonNoTaskID, "id", id)
		res.Aborted, res.Reason = true, ReasonNoTaskID
		return res, nil
	}
	res.ID = id

	p := &pass{sheet: s, ix: ix, dateCol: roles[RoleExpectedDate], log: log}
	p.backward(rec)

	root, cycle := FindRoot(ix, id)
	res.Root, res.Cycle = root, cycle
	if cycle {
		log.Warn("dependency cycle, using pseudo-root", "id", id, "root", root)
	}
	rootRec, _ := ix.Get(root)
	p.forward(rootRec, map[TaskID]bool{root: true})

	res.Changes = append(res.Changes, p.changes...)
	log.Debug("resolve finished", "id", id, "root", root, "changes", len(res.Changes))
	return res, r.finish(s, res)
}

// Reschedule anchors every root task at start and pushes dates forward
// through the whole sheet. Tasks trapped in a cycle with no root keep
// their dates.
func (r *Resolver) Reschedule(s *sheet.Sheet, start date.Date) (Result, error) {
	log := r.logger().With("sheet", s.Name)
	res := Result{Project: s.Name, Row: -1, Changes: []Change{}}

	roles := DetectRoles(s.Header)
	if missing := roles.Missing(); len(missing) > 0 {
		log.Warn("reschedule aborted: "+ReasonMissingRoles,
			"found", rolesString(roles.Found()), "missing", rolesString(missing))
		res.Aborted, res.Reason, res.Missing = true, ReasonMissingRoles, missing
		return res, nil
	}

	ix := BuildIndex(s, roles)
	p := &pass{sheet: s, ix: ix, dateCol: roles[RoleExpectedDate], log: log}
	visited := make(map[TaskID]bool, ix.Len())
	for _, rec := range ix.Records() {
		if rec.Dependency != "" {
			if _, ok := ix.Get(rec.Dependency); ok {
				continue
			}
		}
		visited[rec.ID] = true
		p.assign(rec, start.AddDays(rec.Duration))
		p.forward(rec, visited)
	}

	res.Changes = append(res.Changes, p.changes...)
	log.Debug("reschedule finished", "start", start, "changes", len(res.Changes))
	return res, r.finish(s, res)
}

func (r *Resolver) finish(s *sheet.Sheet, res Result) error {
	if r.Persist != nil {
		if err := r.Persist(s); err != nil {
			return fmt.Errorf("persisting %s: %w", s.Name, err)
		}
	}
	if r.Refresh != nil {
		r.Refresh(s, res)
	}
	return nil
}

func rolesString(roles []Role) string {
	parts := make([]string, len(roles))
	for i, role := range roles {
		parts[i] = string(role)
	}
	return strings.Join(parts, ",")
}
