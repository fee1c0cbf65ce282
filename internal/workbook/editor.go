package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/board"
	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/schedule"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

// Editor applies validated edits to the template or a project and keeps
// expected dates consistent through the resolver. An empty project name
// addresses the template.
type Editor struct {
	store   *Store
	refresh schedule.RefreshFunc
}

// NewEditor returns an editor over store. refresh, when set, is told about
// every resolution pass.
func NewEditor(store *Store, refresh schedule.RefreshFunc) *Editor {
	return &Editor{store: store, refresh: refresh}
}

// Edit reports one applied cell change.
type Edit struct {
	Project  string           `json:"project"`
	TaskID   string           `json:"task_id"`
	Row      int              `json:"row"`
	Column   string           `json:"column"`
	Role     schedule.Role    `json:"role,omitempty"`
	Old      string           `json:"old"`
	New      string           `json:"new"`
	Resolved *schedule.Result `json:"resolved,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// target is a loaded sheet plus the way to persist it.
type target struct {
	sheet   *sheet.Sheet
	persist schedule.PersistFunc
	roles   schedule.Roles
	label   string
}

func (e *Editor) open(project string) (*target, error) {
	var (
		sh      *sheet.Sheet
		persist schedule.PersistFunc
		err     error
	)
	if project == "" {
		sh, err = e.store.LoadTemplate()
		persist = e.store.SaveTemplate
	} else {
		sh, err = e.store.LoadProject(project)
		persist = e.store.SaveProject
	}
	if err != nil {
		return nil, err
	}
	return &target{sheet: sh, persist: persist, roles: schedule.DetectRoles(sh.Header), label: sh.Name}, nil
}

func (t *target) idColumn() (int, error) {
	col, ok := t.roles[schedule.RoleID]
	if !ok {
		return -1, clierr.Newf(clierr.ColumnNotFound, "%s has no ID column", t.label).
			WithDetails(map[string]any{"sheet": t.label, "columns": t.sheet.Header})
	}
	return col, nil
}

func (t *target) row(id string) (int, error) {
	idCol, err := t.idColumn()
	if err != nil {
		return -1, err
	}
	row := t.sheet.RowByID(idCol, id)
	if row < 0 {
		return -1, RowNotFound(t.label, strings.TrimSpace(id))
	}
	return row, nil
}

func (e *Editor) resolver(t *target) *schedule.Resolver {
	return schedule.New(e.store.Logger(), t.persist, e.refresh)
}

// SetCell validates value for the column's role, writes it and, for
// duration, dependency and expected-date columns, resolves the schedule
// around the row.
func (e *Editor) SetCell(project, taskID, column, value string) (*Edit, error) {
	t, err := e.open(project)
	if err != nil {
		return nil, err
	}
	ed, err := e.setCell(t, taskID, column, value)
	if err != nil {
		return nil, err
	}
	action := ActionSetCell
	if project == "" {
		action = ActionTemplateSet
	}
	e.store.LogMutation(action, t.sheet.Name, ed.TaskID,
		fmt.Sprintf("%s: %q -> %q", ed.Column, ed.Old, ed.New))
	return ed, nil
}

func (e *Editor) setCell(t *target, taskID, column, value string) (*Edit, error) {
	row, err := t.row(taskID)
	if err != nil {
		return nil, err
	}
	col := t.sheet.ColumnIndex(column)
	if col < 0 {
		return nil, ColumnNotFound(t.label, column, t.sheet.Header)
	}

	ed := &Edit{
		Project: t.sheet.Name,
		TaskID:  strings.TrimSpace(taskID),
		Row:     row,
		Column:  t.sheet.Header[col],
		Old:     t.sheet.Cell(row, col),
	}
	if role, ok := schedule.RoleOf(t.sheet.Header[col]); ok && t.roles[role] == col {
		ed.Role = role
	}

	value, warnings, err := e.normalize(t, row, col, ed.Role, value)
	if err != nil {
		return nil, err
	}
	ed.New, ed.Warnings = value, warnings
	if ed.New == ed.Old {
		return nil, clierr.Newf(clierr.NoChanges, "%s of task %s is already %q", ed.Column, ed.TaskID, ed.Old).
			WithDetails(map[string]any{"column": ed.Column, "value": ed.Old})
	}

	if err := t.sheet.SetCell(row, col, ed.New); err != nil {
		return nil, clierr.New(clierr.InternalError, err.Error())
	}
	if ed.Role == schedule.RoleID {
		ed.Warnings = append(ed.Warnings, renameDependents(t, ed.Old, ed.New)...)
	}

	if err := e.persist(t, row, ed.Role, &ed.Resolved); err != nil {
		return nil, err
	}
	return ed, nil
}

// persist saves t, going through the resolver when the edited column
// feeds the schedule.
func (e *Editor) persist(t *target, row int, role schedule.Role, resolved **schedule.Result) error {
	switch role {
	case schedule.RoleDuration, schedule.RoleDependency, schedule.RoleExpectedDate:
		res, err := e.resolver(t).Resolve(t.sheet, row)
		if err != nil {
			return err
		}
		*resolved = &res
		if !res.Aborted {
			return nil
		}
	}
	return t.persist(t.sheet)
}

func (e *Editor) normalize(t *target, row, col int, role schedule.Role, value string) (string, []string, error) {
	value = strings.TrimSpace(value)
	header := t.sheet.Header[col]
	cfg := e.store.Config()

	switch role {
	case schedule.RoleDuration:
		if value == "" {
			return "", nil, nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return "", nil, ValidateDuration(header, value)
		}
		return strconv.Itoa(n), nil, nil

	case schedule.RoleExpectedDate:
		if value == "" {
			return "", nil, nil
		}
		d, err := date.Parse(value)
		if err != nil {
			return "", nil, ValidateDate(header, value, err)
		}
		return d.String(), nil, nil

	case schedule.RoleDependency:
		return checkDependency(t, row, value)

	case schedule.RoleID:
		if value == "" {
			return "", nil, clierr.New(clierr.InvalidRowID, "task ID cannot be empty")
		}
		if other := t.sheet.RowByID(t.roles[schedule.RoleID], value); other >= 0 && other != row {
			return "", nil, ValidateDuplicateID(value)
		}
		return value, nil, nil
	}

	if strings.EqualFold(header, cfg.Columns.Status) {
		status, ok := cfg.NormalizeStatus(value)
		if !ok {
			return "", nil, ValidateStatus(value, cfg.StatusNames())
		}
		return status, nil, nil
	}
	return value, nil, nil
}

// checkDependency validates a new dependency for the task on row. A
// dependency that closes a cycle is accepted with a warning.
func checkDependency(t *target, row int, dep string) (string, []string, error) {
	if dep == "" {
		return "", nil, nil
	}
	idCol := t.roles[schedule.RoleID]
	self := strings.TrimSpace(t.sheet.Cell(row, idCol))
	if dep == self {
		return "", nil, ValidateSelfReference(self)
	}
	if t.sheet.RowByID(idCol, dep) < 0 {
		return "", nil, ValidateDependencyNotFound(dep)
	}

	ix := schedule.BuildIndex(t.sheet, t.roles)
	path, cycle := schedule.Chain(ix, schedule.NewTaskID(dep))
	for _, id := range path {
		if string(id) == self {
			cycle = true
			break
		}
	}
	if cycle {
		return dep, []string{fmt.Sprintf("dependency %s -> %s creates a cycle; dates along it are resolved best-effort", self, dep)}, nil
	}
	return dep, nil, nil
}

// renameDependents points rows that depended on oldID at newID.
func renameDependents(t *target, oldID, newID string) []string {
	depCol, ok := t.roles[schedule.RoleDependency]
	if !ok || strings.TrimSpace(oldID) == "" {
		return nil
	}
	var warnings []string
	for r := range t.sheet.Rows {
		if strings.TrimSpace(t.sheet.Cell(r, depCol)) == strings.TrimSpace(oldID) {
			_ = t.sheet.SetCell(r, depCol, newID)
			warnings = append(warnings, fmt.Sprintf("row %d now depends on %s", r+1, newID))
		}
	}
	return warnings
}

// Resolve runs a resolution pass on the row holding taskID.
func (e *Editor) Resolve(project, taskID string) (schedule.Result, error) {
	t, err := e.open(project)
	if err != nil {
		return schedule.Result{}, err
	}
	row, err := t.row(taskID)
	if err != nil {
		return schedule.Result{}, err
	}
	res, err := e.resolver(t).Resolve(t.sheet, row)
	if err != nil {
		return res, err
	}
	if !res.Aborted {
		e.store.LogMutation(ActionResolve, t.sheet.Name, string(res.ID),
			fmt.Sprintf("%d dates changed from root %s", len(res.Changes), res.Root))
	}
	return res, nil
}

// Reschedule anchors every root task of project at start.
func (e *Editor) Reschedule(project string, start date.Date) (schedule.Result, error) {
	t, err := e.open(project)
	if err != nil {
		return schedule.Result{}, err
	}
	res, err := e.resolver(t).Reschedule(t.sheet, start)
	if err != nil {
		return res, err
	}
	if !res.Aborted {
		e.store.LogMutation(ActionResolve, t.sheet.Name, "",
			fmt.Sprintf("rescheduled from %s, %d dates changed", start, len(res.Changes)))
	}
	return res, nil
}

// CreateProject clones the template and, when start is set, schedules the
// new project from that day.
func (e *Editor) CreateProject(name string, start *date.Date) (*sheet.Sheet, *schedule.Result, error) {
	sh, err := e.store.CreateProject(name)
	if err != nil {
		return nil, nil, err
	}
	e.store.LogMutation(ActionCreate, sh.Name, "", fmt.Sprintf("from template, %d rows", sh.Len()))
	if start == nil {
		return sh, nil, nil
	}
	res, err := e.Reschedule(sh.Name, *start)
	if err != nil {
		return nil, nil, err
	}
	sh, err = e.store.LoadProject(sh.Name)
	if err != nil {
		return nil, nil, err
	}
	return sh, &res, nil
}

// Direction of a relative status move.
const (
	MoveNext = "next"
	MovePrev = "prev"
)

// Move changes the status of a task, enforcing WIP limits. target is a
// status name, or MoveNext / MovePrev.
func (e *Editor) Move(project, taskID, target string) (*Edit, error) {
	t, err := e.open(project)
	if err != nil {
		return nil, err
	}
	if _, err := t.row(taskID); err != nil {
		return nil, err
	}
	cfg := e.store.Config()
	if t.sheet.ColumnIndex(cfg.Columns.Status) < 0 {
		return nil, ColumnNotFound(t.label, cfg.Columns.Status, t.sheet.Header)
	}

	cards := board.Cards(cfg, t.sheet)
	card, _ := board.FindCard(cards, taskID)

	status, err := e.resolveMoveTarget(card, target)
	if err != nil {
		return nil, err
	}
	if err := board.CheckWIPLimit(cfg, board.CountByStatus(cards), status, card.Status); err != nil {
		return nil, err
	}

	ed, err := e.setCell(t, taskID, cfg.Columns.Status, status)
	if err != nil {
		return nil, err
	}
	e.store.LogMutation(ActionMove, ed.Project, ed.TaskID, fmt.Sprintf("%s -> %s", card.Status, status))
	return ed, nil
}

func (e *Editor) resolveMoveTarget(card board.Card, target string) (string, error) {
	cfg := e.store.Config()
	names := cfg.StatusNames()
	idx := cfg.StatusIndex(card.Status)

	switch target {
	case MoveNext:
		if idx < 0 || idx >= len(names)-1 {
			return "", ValidateBoundaryError(card.ID, card.Status, "last")
		}
		return names[idx+1], nil
	case MovePrev:
		if idx <= 0 {
			return "", ValidateBoundaryError(card.ID, card.Status, "first")
		}
		return names[idx-1], nil
	}

	status, ok := cfg.NormalizeStatus(target)
	if !ok || strings.TrimSpace(target) == "" {
		return "", ValidateStatus(target, names)
	}
	return status, nil
}

// AddRow appends a task built from column values keyed by header name.
// A missing ID gets the next free number. When the row carries scheduling
// data the resolver runs on it.
func (e *Editor) AddRow(project string, values map[string]string) (*Edit, error) {
	t, err := e.open(project)
	if err != nil {
		return nil, err
	}
	idCol, err := t.idColumn()
	if err != nil {
		return nil, err
	}

	row := t.sheet.AppendRow(nil)
	var warnings []string
	scheduled := false
	for name, raw := range values {
		col := t.sheet.ColumnIndex(name)
		if col < 0 {
			return nil, ColumnNotFound(t.label, name, t.sheet.Header)
		}
		var role schedule.Role
		if r, ok := schedule.RoleOf(t.sheet.Header[col]); ok && t.roles[r] == col {
			role = r
		}
		v, w, err := e.normalize(t, row, col, role, raw)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, w...)
		_ = t.sheet.SetCell(row, col, v)
		if v != "" && (role == schedule.RoleDependency || role == schedule.RoleExpectedDate) {
			scheduled = true
		}
	}
	if strings.TrimSpace(t.sheet.Cell(row, idCol)) == "" {
		_ = t.sheet.SetCell(row, idCol, nextID(t.sheet, idCol))
	}
	if cfg := e.store.Config(); t.sheet.ColumnIndex(cfg.Columns.Status) >= 0 {
		col := t.sheet.ColumnIndex(cfg.Columns.Status)
		if t.sheet.Cell(row, col) == "" {
			_ = t.sheet.SetCell(row, col, cfg.DefaultStatus())
		}
	}

	ed := &Edit{
		Project:  t.sheet.Name,
		TaskID:   t.sheet.Cell(row, idCol),
		Row:      row,
		Warnings: warnings,
	}
	role := schedule.Role("")
	if scheduled {
		role = schedule.RoleExpectedDate
	}
	if err := e.persist(t, row, role, &ed.Resolved); err != nil {
		return nil, err
	}
	e.store.LogMutation(ActionAddRow, t.sheet.Name, ed.TaskID, "")
	return ed, nil
}

// DeleteRow removes a task. Tasks that depended on it keep the dangling
// reference, which the resolver treats as a root, and are reported.
func (e *Editor) DeleteRow(project, taskID string) ([]string, error) {
	t, err := e.open(project)
	if err != nil {
		return nil, err
	}
	row, err := t.row(taskID)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(taskID)
	dependents := FindDependents(t.sheet, id)

	if err := t.sheet.DeleteRow(row); err != nil {
		return nil, clierr.New(clierr.InternalError, err.Error())
	}
	if err := t.persist(t.sheet); err != nil {
		return nil, err
	}
	e.store.LogMutation(ActionDeleteRow, t.sheet.Name, id, "")
	return dependents, nil
}

// FindDependents returns human-readable messages for tasks that name id
// as their dependency.
func FindDependents(sh *sheet.Sheet, id string) []string {
	roles := schedule.DetectRoles(sh.Header)
	if !roles.Complete() {
		return nil
	}
	ix := schedule.BuildIndex(sh, roles)
	var msgs []string
	for _, rec := range ix.Dependents(schedule.NewTaskID(id)) {
		msgs = append(msgs, fmt.Sprintf("task %s depends on this task", rec.ID))
	}
	return msgs
}

func nextID(sh *sheet.Sheet, idCol int) string {
	highest := 0
	for r := range sh.Rows {
		if n, err := strconv.Atoi(strings.TrimSpace(sh.Cell(r, idCol))); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}
