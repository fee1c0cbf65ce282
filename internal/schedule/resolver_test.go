package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

var header = []string{"ID", "Tarea", "Duracion", "Dependencia", "Fecha Esperada"}

// project builds a sheet from (id, duration, dependency, date) tuples.
func project(rows ...[4]string) *sheet.Sheet {
	s := sheet.New("demo", header)
	for _, r := range rows {
		s.AppendRow([]string{r[0], "task " + r[0], r[1], r[2], r[3]})
	}
	return s
}

func dateOf(s *sheet.Sheet, row int) string {
	return s.Cell(row, 4)
}

type calls struct {
	persisted int
	refreshed int
	last      Result
}

func recorder(c *calls) *Resolver {
	return New(nil,
		func(*sheet.Sheet) error { c.persisted++; return nil },
		func(_ *sheet.Sheet, res Result) { c.refreshed++; c.last = res },
	)
}

func TestResolve_Forward(t *testing.T) {
	s := project(
		[4]string{"A", "5", "", "01-Mar-25"},
		[4]string{"B", "3", "A", ""},
	)
	require.NoError(t, s.SetCell(0, 4, "10-Mar-25"))

	var c calls
	res, err := recorder(&c).Resolve(s, 0)
	require.NoError(t, err)

	assert.False(t, res.Aborted)
	assert.Equal(t, TaskID("A"), res.Root)
	assert.Equal(t, "13-Mar-25", dateOf(s, 1))
	assert.Equal(t, []Change{{ID: "B", Row: 1, Old: "", New: "13-Mar-25"}}, res.Changes)
	assert.Equal(t, 1, c.persisted)
	assert.Equal(t, 1, c.refreshed)
	assert.Equal(t, res, c.last)
}

func TestResolve_Backward(t *testing.T) {
	s := project(
		[4]string{"A", "2", "", ""},
		[4]string{"B", "3", "A", "20-Mar-25"},
	)

	res, err := New(nil, nil, nil).Resolve(s, 1)
	require.NoError(t, err)

	assert.Equal(t, "17-Mar-25", dateOf(s, 0))
	assert.Equal(t, "20-Mar-25", dateOf(s, 1), "forward pass from the root lands back on the edited date")
	assert.Len(t, res.Changes, 1)
}

func TestResolve_BackwardThroughChain(t *testing.T) {
	s := project(
		[4]string{"A", "1", "", "01-Jan-25"},
		[4]string{"B", "2", "A", "03-Jan-25"},
		[4]string{"C", "4", "B", "30-Jan-25"},
	)

	_, err := New(nil, nil, nil).Resolve(s, 2)
	require.NoError(t, err)

	assert.Equal(t, "24-Jan-25", dateOf(s, 0))
	assert.Equal(t, "26-Jan-25", dateOf(s, 1))
	assert.Equal(t, "30-Jan-25", dateOf(s, 2))
}

func TestResolve_ChainPropagation(t *testing.T) {
	s := project(
		[4]string{"C", "4", "B", ""},
		[4]string{"A", "1", "", "01-Apr-25"},
		[4]string{"B", "2", "A", ""},
	)

	res, err := New(nil, nil, nil).Resolve(s, 1)
	require.NoError(t, err)

	assert.Equal(t, "03-Apr-25", dateOf(s, 2))
	assert.Equal(t, "07-Apr-25", dateOf(s, 0))
	assert.Len(t, res.Changes, 2)
}

func TestResolve_Fanout(t *testing.T) {
	s := project(
		[4]string{"A", "0", "", "01-May-25"},
		[4]string{"B", "2", "A", ""},
		[4]string{"C", "5", "A", ""},
		[4]string{"D", "1", "C", ""},
	)

	_, err := New(nil, nil, nil).Resolve(s, 0)
	require.NoError(t, err)

	assert.Equal(t, "03-May-25", dateOf(s, 1))
	assert.Equal(t, "06-May-25", dateOf(s, 2))
	assert.Equal(t, "07-May-25", dateOf(s, 3))
}

func TestResolve_CycleTerminates(t *testing.T) {
	for _, row := range []int{0, 1} {
		s := project(
			[4]string{"A", "2", "B", "10-Jun-25"},
			[4]string{"B", "3", "A", "01-Jun-25"},
		)
		var c calls
		res, err := recorder(&c).Resolve(s, row)
		require.NoError(t, err)
		assert.False(t, res.Aborted)
		assert.True(t, res.Cycle)
		assert.Equal(t, 1, c.persisted)
	}
}

func TestResolve_SelfCycle(t *testing.T) {
	s := project([4]string{"A", "2", "A", "10-Jun-25"})

	res, err := New(nil, nil, nil).Resolve(s, 0)
	require.NoError(t, err)
	assert.True(t, res.Cycle)
	assert.Equal(t, TaskID("A"), res.Root)
	assert.Equal(t, "10-Jun-25", dateOf(s, 0))
}

func TestResolve_MissingDateSkipped(t *testing.T) {
	s := project(
		[4]string{"A", "1", "", "not a date"},
		[4]string{"B", "3", "A", "05-Jul-25"},
		[4]string{"C", "2", "B", ""},
	)

	_, err := New(nil, nil, nil).Resolve(s, 0)
	require.NoError(t, err)

	assert.Equal(t, "not a date", dateOf(s, 0))
	assert.Equal(t, "05-Jul-25", dateOf(s, 1), "dependent of an undated task is left alone")
	assert.Equal(t, "07-Jul-25", dateOf(s, 2), "walk still descends past the undated task")
}

func TestResolve_OutOfRangeDatesNotWritten(t *testing.T) {
	t.Run("backward before 2000", func(t *testing.T) {
		s := project(
			[4]string{"A", "0", "", "01-Mar-25"},
			[4]string{"B", "5", "A", "02-Jan-00"},
			[4]string{"C", "1", "B", ""},
		)

		res, err := New(nil, nil, nil).Resolve(s, 1)
		require.NoError(t, err)

		assert.Equal(t, "01-Mar-25", dateOf(s, 0), "28-Dec-1999 cannot be written as dd-Mon-yy")
		assert.Equal(t, "02-Jan-00", dateOf(s, 1), "edited task keeps its date")
		assert.Equal(t, "03-Jan-00", dateOf(s, 2))
		assert.Equal(t, []Change{{ID: "C", Row: 2, Old: "", New: "03-Jan-00"}}, res.Changes)
	})

	t.Run("forward past 2099", func(t *testing.T) {
		s := project(
			[4]string{"A", "0", "", "30-Dec-99"},
			[4]string{"B", "5", "A", "01-Dec-99"},
			[4]string{"C", "1", "B", "02-Dec-99"},
		)

		res, err := New(nil, nil, nil).Resolve(s, 0)
		require.NoError(t, err)

		assert.Equal(t, "01-Dec-99", dateOf(s, 1))
		assert.Equal(t, "02-Dec-99", dateOf(s, 2), "no basis once B is out of range")
		assert.Empty(t, res.Changes)
	})
}

func TestResolve_IdempotentOnConsistentChain(t *testing.T) {
	s := project(
		[4]string{"A", "5", "", "01-Aug-25"},
		[4]string{"B", "3", "A", "04-Aug-25"},
		[4]string{"C", "2", "B", "06-Aug-25"},
		[4]string{"D", "7", "B", "11-Aug-25"},
	)
	before := s.Clone("before")

	r := New(nil, nil, nil)
	for row := range s.Rows {
		res, err := r.Resolve(s, row)
		require.NoError(t, err)
		assert.Empty(t, res.Changes, "row %d", row)
	}
	assert.Equal(t, before.Rows, s.Rows)
}

func TestResolve_CanonicalizesWithoutReportingChange(t *testing.T) {
	s := project(
		[4]string{"A", "5", "", "2025-08-01"},
		[4]string{"B", "3", "A", "4-aug-25"},
	)

	res, err := New(nil, nil, nil).Resolve(s, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
	assert.Equal(t, "04-Aug-25", dateOf(s, 1))
}

func TestResolve_Aborts(t *testing.T) {
	tests := []struct {
		name   string
		sheet  *sheet.Sheet
		row    int
		reason string
	}{
		{
			name: "english headers",
			sheet: func() *sheet.Sheet {
				s := sheet.New("en", []string{"ID", "Duration", "DependsOn", "Fecha Esperada"})
				s.AppendRow([]string{"A", "1", "", "01-Jan-25"})
				return s
			}(),
			reason: ReasonMissingRoles,
		},
		{
			name:   "row out of range",
			sheet:  project([4]string{"A", "1", "", ""}),
			row:    3,
			reason: ReasonRowOutOfRange,
		},
		{
			name:   "row without id",
			sheet:  project([4]string{"", "1", "", "01-Jan-25"}),
			reason: ReasonNoTaskID,
		},
		{
			name: "duplicate id on later row",
			sheet: project(
				[4]string{"A", "1", "", "01-Jan-25"},
				[4]string{"A", "1", "", "09-Jan-25"},
			),
			row:    1,
			reason: ReasonNoTaskID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.sheet.Clone("before")
			var c calls
			res, err := recorder(&c).Resolve(tt.sheet, tt.row)
			require.NoError(t, err)
			assert.True(t, res.Aborted)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, before.Rows, tt.sheet.Rows)
			assert.Zero(t, c.persisted)
			assert.Zero(t, c.refreshed)
		})
	}
}

func TestResolve_MissingRolesListed(t *testing.T) {
	s := sheet.New("en", []string{"ID", "Duration", "DependsOn", "Fecha Esperada"})
	s.AppendRow([]string{"A"})

	res, err := New(nil, nil, nil).Resolve(s, 0)
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleDuration, RoleDependency}, res.Missing)
}

func TestResolve_PersistError(t *testing.T) {
	s := project([4]string{"A", "1", "", "01-Jan-25"})
	refreshed := false
	r := New(nil,
		func(*sheet.Sheet) error { return errors.New("disk full") },
		func(*sheet.Sheet, Result) { refreshed = true },
	)

	_, err := r.Resolve(s, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, refreshed)
}

func TestResolve_UnknownDependencyIsRoot(t *testing.T) {
	s := project(
		[4]string{"B", "3", "Z", "10-Jan-25"},
		[4]string{"C", "1", "B", ""},
	)

	res, err := New(nil, nil, nil).Resolve(s, 0)
	require.NoError(t, err)
	assert.Equal(t, TaskID("B"), res.Root)
	assert.Equal(t, "11-Jan-25", dateOf(s, 1))
}

func TestReschedule(t *testing.T) {
	s := project(
		[4]string{"A", "2", "", ""},
		[4]string{"B", "3", "A", ""},
		[4]string{"X", "1", "", "31-Dec-24"},
		[4]string{"P", "1", "Q", "01-Jan-25"},
		[4]string{"Q", "1", "P", "02-Jan-25"},
	)
	start := mustDate(t, "06-Jan-25")

	res, err := New(nil, nil, nil).Reschedule(s, start)
	require.NoError(t, err)

	assert.Equal(t, "08-Jan-25", dateOf(s, 0))
	assert.Equal(t, "11-Jan-25", dateOf(s, 1))
	assert.Equal(t, "07-Jan-25", dateOf(s, 2))
	assert.Equal(t, "01-Jan-25", dateOf(s, 3), "rootless cycle keeps its dates")
	assert.Equal(t, "02-Jan-25", dateOf(s, 4))
	assert.Len(t, res.Changes, 3)
}
