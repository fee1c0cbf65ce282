package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/config"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

var header = []string{"ID", "Fase", "Hito", "Tarea", "Responsable", "Duracion", "Dependencia", "Fecha Esperada", "Estado"}

var today = date.New(2025, time.March, 10)

func project(name string) *sheet.Sheet {
	sh := sheet.New(name, header)
	for _, r := range [][]string{
		{"1", "Inicio", "Arranque", "Kickoff", "Ana", "1", "", "03-Mar-25", "completado"},
		{"2", "Inicio", "", "Requisitos", "Luis", "5", "1", "08-Mar-25", "En curso"},
		{"3", "Diseño", "Diseño aprobado", "Diseño", "Ana", "10", "2", "18-Mar-25", ""},
		{"10", "Cierre", "Entrega", "Entrega", "", "2", "3", "", "Pausado"},
	} {
		sh.AppendRow(r)
	}
	return sh
}

func cards(t *testing.T) []Card {
	t.Helper()
	return Cards(config.NewDefault("wb"), project("Norte"))
}

func TestCards(t *testing.T) {
	cs := cards(t)
	require.Len(t, cs, 4)

	assert.Equal(t, "Completado", cs[0].Status, "status spelling normalized")
	assert.True(t, cs[0].Done)
	assert.Equal(t, "Pendiente", cs[2].Status, "empty status takes the default")
	assert.Equal(t, "Pausado", cs[3].Status, "unknown status kept")

	assert.Equal(t, "08-Mar-25", cs[1].Expected.String())
	assert.Equal(t, "03-Mar-25", cs[1].Start.String())
	assert.Nil(t, cs[3].Expected)
	assert.True(t, cs[2].IsMilestone())
	assert.Equal(t, "Requisitos", cs[1].Title())

	c, ok := FindCard(cs, " 3 ")
	require.True(t, ok)
	assert.Equal(t, 2, c.Row)
	_, ok = FindCard(cs, "")
	assert.False(t, ok)
}

func TestCards_MissingColumns(t *testing.T) {
	sh := sheet.New("bare", []string{"ID", "Tarea"})
	sh.AppendRow([]string{"1", "Solo"})

	cs := Cards(config.NewDefault("wb"), sh)
	require.Len(t, cs, 1)
	assert.Equal(t, "Solo", cs[0].Task)
	assert.Equal(t, "Pendiente", cs[0].Status)
	assert.Zero(t, cs[0].Duration)
	assert.Nil(t, cs[0].Expected)
}

func TestFilter(t *testing.T) {
	cs := cards(t)
	ids := func(in []Card) []string {
		var out []string
		for _, c := range in {
			out = append(out, c.ID)
		}
		return out
	}

	tests := []struct {
		name string
		opts FilterOptions
		want []string
	}{
		{"no filter", FilterOptions{}, []string{"1", "2", "3", "10"}},
		{"status", FilterOptions{Statuses: []string{"en curso"}}, []string{"2"}},
		{"exclude", FilterOptions{ExcludeStatuses: []string{"Completado", "Pausado"}}, []string{"2", "3"}},
		{"phase", FilterOptions{Phase: "inicio"}, []string{"1", "2"}},
		{"owner", FilterOptions{Owner: "ANA"}, []string{"1", "3"}},
		{"milestones", FilterOptions{MilestonesOnly: true}, []string{"1", "3", "10"}},
		{"overdue", FilterOptions{OverdueOnly: true, Today: today}, []string{"2"}},
		{"search", FilterOptions{Search: "entreg"}, []string{"10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(cs, tt.opts)))
		})
	}
}

func TestSort(t *testing.T) {
	cfg := config.NewDefault("wb")
	ids := func(cs []Card) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}

	cs := cards(t)
	Sort(cs, "date", true, cfg)
	assert.Equal(t, []string{"10", "3", "2", "1"}, ids(cs))

	cs = cards(t)
	Sort(cs, "status", false, cfg)
	assert.Equal(t, []string{"3", "2", "1", "10"}, ids(cs))

	cs = cards(t)
	Sort(cs, "id", true, cfg)
	assert.Equal(t, []string{"10", "3", "2", "1"}, ids(cs))

	assert.True(t, lessID("9", "10"))
	assert.True(t, lessID("9", "A"))
	assert.False(t, lessID("B", "A"))
}

func TestKanban(t *testing.T) {
	cfg := config.NewDefault("wb")
	cfg.WIPLimits = map[string]int{"En curso": 2}

	cols := Kanban(cfg, cards(t))
	require.Len(t, cols, 5)
	assert.Equal(t, "Pendiente", cols[0].Status)
	assert.Len(t, cols[0].Cards, 1)
	assert.Equal(t, 2, cols[1].WIPLimit)
	assert.Empty(t, cols[2].Cards)
	assert.NotNil(t, cols[2].Cards)
	assert.True(t, cols[3].Done)
	assert.Equal(t, "Pausado", cols[4].Status)
}

func TestGroupBy(t *testing.T) {
	cfg := config.NewDefault("wb")

	g := GroupBy(cards(t), "phase", cfg)
	require.Len(t, g.Groups, 3)
	assert.Equal(t, "Inicio", g.Groups[0].Key)
	assert.Equal(t, 2, g.Groups[0].Total)
	assert.Equal(t, "Diseño", g.Groups[1].Key)

	g = GroupBy(cards(t), "owner", cfg)
	keys := make([]string, len(g.Groups))
	for i, grp := range g.Groups {
		keys[i] = grp.Key
	}
	assert.Equal(t, []string{"(owner vacío)", "Ana", "Luis"}, keys)
}

func TestCheckWIPLimit(t *testing.T) {
	cfg := config.NewDefault("wb")
	cfg.WIPLimits = map[string]int{"En curso": 1}
	counts := CountByStatus(cards(t))

	err := CheckWIPLimit(cfg, counts, "En curso", "Pendiente")
	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierr.WIPLimitExceeded, ce.Code)

	assert.NoError(t, CheckWIPLimit(cfg, counts, "En curso", "En curso"))
	assert.NoError(t, CheckWIPLimit(cfg, counts, "Bloqueado", "Pendiente"))
}

func TestSummary(t *testing.T) {
	ov := Summary(config.NewDefault("wb"), "Norte", cards(t), today)
	assert.Equal(t, 4, ov.TotalTasks)
	assert.Equal(t, 3, ov.Milestones)
	assert.Equal(t, 1, ov.Overdue)
	assert.Equal(t, "18-Mar-25", ov.Finish.String())
	require.Len(t, ov.Statuses, 5)
	assert.Equal(t, StatusSummary{Status: "Pausado", Count: 1}, ov.Statuses[4])
}

func TestTimeline(t *testing.T) {
	items := Timeline(cards(t), today, false)
	require.Len(t, items, 4)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "10", items[3].ID)
	assert.True(t, items[1].Overdue)
	assert.Equal(t, -2, *items[1].DaysLeft)
	assert.Nil(t, items[3].DaysLeft)

	first, last, ok := Span(items)
	require.True(t, ok)
	assert.Equal(t, "02-Mar-25", first.String())
	assert.Equal(t, "18-Mar-25", last.String())

	ms := Timeline(cards(t), today, true)
	assert.Len(t, ms, 3)

	_, _, ok = Span(nil)
	assert.False(t, ok)
}

func TestBuildMatrix(t *testing.T) {
	cfg := config.NewDefault("wb")
	tmpl := sheet.New("Plantilla", header)
	tmpl.AppendRow([]string{"1", "", "Entrega"})
	tmpl.AppendRow([]string{"2", "", "Arranque"})

	sur := sheet.New("Sur", header)
	sur.AppendRow([]string{"1", "", "arranque", "", "", "", "", "01-Mar-25", "Pendiente"})
	sur.AppendRow([]string{"2", "", "Extra", "", "", "", "", "", ""})

	m := BuildMatrix(cfg, tmpl, []*sheet.Sheet{project("Norte"), sur}, today)
	assert.Equal(t, []string{"Entrega", "Arranque", "Diseño aprobado", "Extra"}, m.Milestones)
	require.Len(t, m.Rows, 2)

	norte := m.Rows[0]
	assert.Equal(t, "Norte", norte.Project)
	assert.True(t, norte.Cells[0].Present)
	assert.Nil(t, norte.Cells[0].Expected)
	assert.Equal(t, "03-Mar-25", norte.Cells[1].Expected.String())
	assert.False(t, norte.Cells[1].Overdue, "done milestones are never overdue")
	assert.False(t, norte.Cells[3].Present)

	southArranque := m.Rows[1].Cells[1]
	assert.True(t, southArranque.Overdue)
	assert.Equal(t, "Pendiente", southArranque.Status)
}
