package schedule

import (
	"log/slog"

	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

// Change records one expected-date cell rewritten during a pass.
type Change struct {
	ID  TaskID `json:"id"`
	Row int    `json:"row"`
	Old string `json:"old"`
	New string `json:"new"`
}

// pass holds the state of a single resolution over one sheet.
type pass struct {
	sheet   *sheet.Sheet
	ix      *Index
	dateCol int
	log     *slog.Logger
	changes []Change
}

// assign sets rec's working date and writes it into the row. The cell is
// always rewritten in canonical form; only calendar changes are recorded.
// A date outside the dd-Mon-yy year range is not written: rec becomes
// unknown for the rest of the pass and assign reports false.
func (p *pass) assign(rec *Record, d date.Date) bool {
	old := p.sheet.Cell(rec.Row, p.dateCol)
	if !d.InRange() {
		p.log.Warn("computed date out of range, left unchanged",
			"id", rec.ID, "row", rec.Row, "date", d.ISO(), "cell", old)
		rec.Known = false
		return false
	}
	changed := !rec.Known || !rec.Date.Equal(d)
	rec.Date, rec.Known = d, true

	formatted := d.String()
	if old == formatted {
		return true
	}
	if err := p.sheet.SetCell(rec.Row, p.dateCol, formatted); err != nil {
		// Rows come from the index, so this only fires on a corrupted sheet.
		p.log.Error("writing expected date", "id", rec.ID, "row", rec.Row, "error", err)
		return false
	}
	if changed {
		p.changes = append(p.changes, Change{ID: rec.ID, Row: rec.Row, Old: old, New: formatted})
		p.log.Debug("date updated", "id", rec.ID, "old", old, "new", formatted)
	}
	return true
}

// forward pushes t's date onto each direct dependent and recurses into it.
// Dependents are left alone when t has no known date, but the walk still
// descends so grandchildren with a known basis are reached.
func (p *pass) forward(t *Record, visited map[TaskID]bool) {
	for _, c := range p.ix.Dependents(t.ID) {
		if visited[c.ID] {
			p.log.Debug("forward walk revisited task", "id", c.ID, "from", t.ID)
			continue
		}
		visited[c.ID] = true
		if t.Known {
			p.assign(c, t.Date.AddDays(c.Duration))
		}
		p.forward(c, visited)
	}
}

// backward pushes t's date onto its dependency chain until it reaches a
// root, a task without a basis date, an unknown dependency or a task
// already written in this walk.
func (p *pass) backward(t *Record) {
	visited := map[TaskID]bool{t.ID: true}
	for cur := t; cur.Dependency != "" && cur.Known; {
		dep, ok := p.ix.Get(cur.Dependency)
		if !ok {
			p.log.Warn("dependency not found", "id", cur.ID, "dependency", cur.Dependency)
			return
		}
		if visited[dep.ID] {
			p.log.Warn("dependency cycle", "id", cur.ID, "dependency", dep.ID)
			return
		}
		visited[dep.ID] = true
		if !p.assign(dep, cur.Date.AddDays(-cur.Duration)) {
			return
		}
		cur = dep
	}
}

// FindRoot follows dependency links from start to the first task without
// one. A dependency naming no row counts as the end of the chain. When the
// walk revisits a task it stops there and reports cycle=true with that task
// as the pseudo-root.
func FindRoot(ix *Index, start TaskID) (root TaskID, cycle bool) {
	visited := make(map[TaskID]bool)
	cur := start
	for {
		if visited[cur] {
			return cur, true
		}
		visited[cur] = true
		rec, ok := ix.Get(cur)
		if !ok || rec.Dependency == "" {
			return cur, false
		}
		if _, ok := ix.Get(rec.Dependency); !ok {
			return cur, false
		}
		cur = rec.Dependency
	}
}

// Chain returns the dependency path starting at start, the start included.
// The path ends at a root, a missing dependency or the first repeated ID;
// cycle reports the latter.
func Chain(ix *Index, start TaskID) (path []TaskID, cycle bool) {
	seen := make(map[TaskID]bool)
	for cur := start; cur != ""; {
		if seen[cur] {
			return append(path, cur), true
		}
		seen[cur] = true
		path = append(path, cur)
		rec, ok := ix.Get(cur)
		if !ok {
			break
		}
		cur = rec.Dependency
	}
	return path, false
}
