package workbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/schedule"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

const dateCol = 7

func newEditor(t *testing.T) (*Editor, *Store, *int) {
	t.Helper()
	s := newStore(t)
	refreshed := new(int)
	ed := NewEditor(s, func(*sheet.Sheet, schedule.Result) { *refreshed++ })

	start := date.New(2025, time.March, 3)
	_, res, err := ed.CreateProject("Norte", &start)
	require.NoError(t, err)
	require.NotNil(t, res)
	return ed, s, refreshed
}

func dates(t *testing.T, s *Store, project string) []string {
	t.Helper()
	sh, err := s.LoadProject(project)
	require.NoError(t, err)
	out := make([]string, sh.Len())
	for r := range sh.Rows {
		out[r] = sh.Cell(r, dateCol)
	}
	return out
}

func TestEditor_CreateProjectSchedules(t *testing.T) {
	_, s, refreshed := newEditor(t)
	assert.Equal(t, []string{"04-Mar-25", "09-Mar-25", "19-Mar-25", "08-Apr-25", "10-Apr-25"}, dates(t, s, "Norte"))
	assert.Equal(t, 1, *refreshed)

	tmpl, err := s.LoadTemplate()
	require.NoError(t, err)
	assert.Empty(t, tmpl.Cell(0, dateCol), "template keeps blank dates")
}

func TestEditor_SetDuration(t *testing.T) {
	ed, s, _ := newEditor(t)

	res, err := ed.SetCell("Norte", "3", "duracion", " 12 ")
	require.NoError(t, err)
	assert.Equal(t, "10", res.Old)
	assert.Equal(t, "12", res.New)
	assert.Equal(t, schedule.RoleDuration, res.Role)
	require.NotNil(t, res.Resolved)
	assert.Len(t, res.Resolved.Changes, 2)

	assert.Equal(t, []string{"02-Mar-25", "07-Mar-25", "19-Mar-25", "08-Apr-25", "10-Apr-25"}, dates(t, s, "Norte"))
}

func TestEditor_SetExpectedDate(t *testing.T) {
	ed, s, refreshed := newEditor(t)

	res, err := ed.SetCell("Norte", "5", "Fecha Esperada", "2025-04-20")
	require.NoError(t, err)
	assert.Equal(t, "20-Apr-25", res.New)
	assert.Equal(t, schedule.TaskID("1"), res.Resolved.Root)
	assert.Equal(t, []string{"14-Mar-25", "19-Mar-25", "29-Mar-25", "18-Apr-25", "20-Apr-25"}, dates(t, s, "Norte"))
	assert.Equal(t, 2, *refreshed)
}

func TestEditor_SetCellValidation(t *testing.T) {
	ed, _, _ := newEditor(t)

	tests := []struct {
		name   string
		id     string
		column string
		value  string
		code   string
	}{
		{"negative duration", "2", "Duracion", "-1", clierr.InvalidDuration},
		{"text duration", "2", "Duracion", "cinco", clierr.InvalidDuration},
		{"bad date", "2", "Fecha Esperada", "31-Feb-25", clierr.InvalidDate},
		{"date before 2000", "5", "Fecha Esperada", "1999-12-31", clierr.InvalidDate},
		{"date after 2099", "5", "Fecha Esperada", "2100-01-01", clierr.InvalidDate},
		{"missing dependency", "2", "Dependencia", "9", clierr.DependencyNotFound},
		{"self dependency", "2", "Dependencia", "2", clierr.SelfReference},
		{"duplicate id", "2", "ID", "1", clierr.DuplicateID},
		{"empty id", "2", "ID", " ", clierr.InvalidRowID},
		{"unknown status", "2", "Estado", "Hecho", clierr.InvalidStatus},
		{"unchanged", "2", "Duracion", "5", clierr.NoChanges},
		{"unknown column", "2", "Presupuesto", "10", clierr.ColumnNotFound},
		{"unknown row", "42", "Duracion", "1", clierr.RowNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ed.SetCell("Norte", tt.id, tt.column, tt.value)
			requireCode(t, err, tt.code)
		})
	}

	_, err := ed.SetCell("Oeste", "1", "Duracion", "1")
	requireCode(t, err, clierr.ProjectNotFound)
}

func TestEditor_SetStatusNormalizes(t *testing.T) {
	ed, _, _ := newEditor(t)

	res, err := ed.SetCell("Norte", "1", "Estado", "completado")
	require.NoError(t, err)
	assert.Equal(t, "Completado", res.New)
	assert.Nil(t, res.Resolved)
}

func TestEditor_DependencyCycleWarns(t *testing.T) {
	ed, _, _ := newEditor(t)

	res, err := ed.SetCell("Norte", "1", "Dependencia", "3")
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "cycle")
	require.NotNil(t, res.Resolved)
	assert.True(t, res.Resolved.Cycle)
}

func TestEditor_RenameIDUpdatesDependents(t *testing.T) {
	ed, s, _ := newEditor(t)

	res, err := ed.SetCell("Norte", "1", "ID", "1a")
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)

	sh, err := s.LoadProject("Norte")
	require.NoError(t, err)
	assert.Equal(t, "1a", sh.Cell(0, 0))
	assert.Equal(t, "1a", sh.Cell(1, 6))
}

func TestEditor_Template(t *testing.T) {
	ed, s, _ := newEditor(t)

	res, err := ed.SetCell("", "2", "Duracion", "7")
	require.NoError(t, err)
	require.NotNil(t, res.Resolved)
	assert.Empty(t, res.Resolved.Changes, "template rows have no dates to move")

	tmpl, err := s.LoadTemplate()
	require.NoError(t, err)
	assert.Equal(t, "7", tmpl.Cell(1, 5))

	entries, err := ReadLog(s.Dir(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionTemplateSet, entries[0].Action)
}

func TestEditor_Move(t *testing.T) {
	ed, s, _ := newEditor(t)
	s.Config().WIPLimits = map[string]int{"En curso": 1}

	res, err := ed.Move("Norte", "1", MoveNext)
	require.NoError(t, err)
	assert.Equal(t, "Pendiente", res.Old)
	assert.Equal(t, "En curso", res.New)

	_, err = ed.Move("Norte", "2", "en curso")
	requireCode(t, err, clierr.WIPLimitExceeded)

	_, err = ed.Move("Norte", "2", MovePrev)
	requireCode(t, err, clierr.BoundaryError)

	_, err = ed.Move("Norte", "2", "Archivado")
	requireCode(t, err, clierr.InvalidStatus)

	res, err = ed.Move("Norte", "1", "Completado")
	require.NoError(t, err)
	assert.Equal(t, "Completado", res.New)

	_, err = ed.Move("Norte", "1", MoveNext)
	requireCode(t, err, clierr.BoundaryError)

	entries, err := ReadLog(s.Dir(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionMove, entries[0].Action)
}

func TestEditor_AddRow(t *testing.T) {
	ed, s, _ := newEditor(t)

	res, err := ed.AddRow("Norte", map[string]string{
		"Tarea":       "Capacitación",
		"Duracion":    "3",
		"Dependencia": "5",
	})
	require.NoError(t, err)
	assert.Equal(t, "6", res.TaskID)
	require.NotNil(t, res.Resolved)

	sh, err := s.LoadProject("Norte")
	require.NoError(t, err)
	require.Equal(t, 6, sh.Len())
	assert.Equal(t, "13-Apr-25", sh.Cell(5, dateCol))
	assert.Equal(t, "Pendiente", sh.Cell(5, 8))

	_, err = ed.AddRow("Norte", map[string]string{"Dependencia": "99"})
	requireCode(t, err, clierr.DependencyNotFound)
}

func TestEditor_DeleteRow(t *testing.T) {
	ed, s, _ := newEditor(t)

	warnings, err := ed.DeleteRow("Norte", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"task 4 depends on this task"}, warnings)

	sh, err := s.LoadProject("Norte")
	require.NoError(t, err)
	assert.Equal(t, 4, sh.Len())

	res, err := ed.Resolve("Norte", "4")
	require.NoError(t, err)
	assert.Equal(t, schedule.TaskID("4"), res.Root, "a dangling dependency makes a root")
}

func TestEditor_Reschedule(t *testing.T) {
	ed, s, _ := newEditor(t)

	res, err := ed.Reschedule("Norte", date.New(2025, time.March, 10))
	require.NoError(t, err)
	assert.Len(t, res.Changes, 5)
	assert.Equal(t, "11-Mar-25", dates(t, s, "Norte")[0])

	res, err = ed.Reschedule("Norte", date.New(2025, time.March, 10))
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
}
