package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

func mustDate(t *testing.T, s string) date.Date {
	t.Helper()
	d, err := date.Parse(s)
	require.NoError(t, err)
	return d
}

func TestDetectRoles(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		want    Roles
		missing []Role
	}{
		{
			name:   "canonical spanish",
			header: []string{"ID", "Tarea", "Duracion", "Dependencia", "Fecha Esperada"},
			want:   Roles{RoleID: 0, RoleDuration: 2, RoleDependency: 3, RoleExpectedDate: 4},
		},
		{
			name:   "short forms any case",
			header: []string{"id", "DIAS", "Dep.", "fecha esperada"},
			want:   Roles{RoleID: 0, RoleDuration: 1, RoleDependency: 2, RoleExpectedDate: 3},
		},
		{
			name:   "accents and extra whitespace",
			header: []string{" Id ", "Duración", "dep", "Fecha   Esperada"},
			want:   Roles{RoleID: 0, RoleDuration: 1, RoleDependency: 2, RoleExpectedDate: 3},
		},
		{
			name:    "english headers are not matched",
			header:  []string{"ID", "Duration", "DependsOn", "Fecha Esperada"},
			want:    Roles{RoleID: 0, RoleExpectedDate: 3},
			missing: []Role{RoleDuration, RoleDependency},
		},
		{
			name:   "leftmost match wins",
			header: []string{"ID", "Dias", "Duracion", "Dep", "Dependencia", "Fecha Esperada"},
			want:   Roles{RoleID: 0, RoleDuration: 1, RoleDependency: 3, RoleExpectedDate: 5},
		},
		{
			name:    "partial words do not match",
			header:  []string{"IDs", "Dias habiles", "Dependencias", "Fecha"},
			want:    Roles{},
			missing: RequiredRoles,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectRoles(tt.header)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.missing, got.Missing())
			assert.Equal(t, len(tt.missing) == 0, got.Complete())
		})
	}
}

func TestRoleOf(t *testing.T) {
	role, ok := RoleOf("FECHA ESPERADA")
	assert.True(t, ok)
	assert.Equal(t, RoleExpectedDate, role)

	_, ok = RoleOf("Responsable")
	assert.False(t, ok)
}

func TestParseDuration(t *testing.T) {
	tests := map[string]int{
		"5":      5,
		" 12 ":   12,
		"5 dias": 5,
		"3.5":    3,
		"":       0,
		"abc":    0,
		"-4":     0,
		"007":    7,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseDuration(in), "input %q", in)
	}
}

func TestBuildIndex(t *testing.T) {
	s := sheet.New("p", header)
	s.AppendRow([]string{"1", "a", "2", "", "01-Jan-25"})
	s.AppendRow([]string{"", "blank"})
	s.AppendRow([]string{" 2 ", "b", "x", " 1 ", "bogus"})
	s.AppendRow([]string{"1", "dup", "9", "", ""})
	s.AppendRow([]string{"3", "c", "1", "1", ""})

	ix := BuildIndex(s, DetectRoles(s.Header))
	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, []TaskID{"1"}, ix.Duplicates())

	one, ok := ix.Get("1")
	require.True(t, ok)
	assert.Equal(t, 0, one.Row)
	assert.Equal(t, 2, one.Duration)
	assert.True(t, one.Known)

	two, ok := ix.Get("2")
	require.True(t, ok)
	assert.Equal(t, 2, two.Row)
	assert.Equal(t, TaskID("1"), two.Dependency)
	assert.Zero(t, two.Duration)
	assert.False(t, two.Known)

	var deps []TaskID
	for _, rec := range ix.Dependents("1") {
		deps = append(deps, rec.ID)
	}
	assert.Equal(t, []TaskID{"2", "3"}, deps)
}

func TestFindRootAndChain(t *testing.T) {
	s := sheet.New("p", header)
	for _, r := range [][]string{
		{"A", "", "1", "", ""},
		{"B", "", "1", "A", ""},
		{"C", "", "1", "B", ""},
		{"X", "", "1", "Y", ""},
		{"Y", "", "1", "X", ""},
		{"M", "", "1", "gone", ""},
	} {
		s.AppendRow(r)
	}
	ix := BuildIndex(s, DetectRoles(s.Header))

	tests := []struct {
		start     TaskID
		root      TaskID
		cycle     bool
		chain     []TaskID
		chainLoop bool
	}{
		{"C", "A", false, []TaskID{"C", "B", "A"}, false},
		{"A", "A", false, []TaskID{"A"}, false},
		{"X", "X", true, []TaskID{"X", "Y", "X"}, true},
		{"M", "M", false, []TaskID{"M", "gone"}, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.start), func(t *testing.T) {
			root, cycle := FindRoot(ix, tt.start)
			assert.Equal(t, tt.root, root)
			assert.Equal(t, tt.cycle, cycle)

			chain, loop := Chain(ix, tt.start)
			assert.Equal(t, tt.chain, chain)
			assert.Equal(t, tt.chainLoop, loop)
		})
	}
}
