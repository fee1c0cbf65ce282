package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/plantrack/internal/board"
	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/config"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
	"github.com/twiced-technology-gmbh/plantrack/internal/schedule"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

var today = date.New(2025, time.March, 10)

func cards(t *testing.T) []board.Card {
	t.Helper()
	sh := sheet.New("Norte", []string{"ID", "Hito", "Tarea", "Duracion", "Dependencia", "Fecha Esperada", "Estado"})
	sh.AppendRow([]string{"1", "Arranque", "Kickoff", "1", "", "03-Mar-25", "Completado"})
	sh.AppendRow([]string{"2", "", "Requisitos", "5", "1", "08-Mar-25", "En curso"})
	sh.AppendRow([]string{"3", "Entrega", "", "4", "2", "12-Mar-25", ""})
	sh.AppendRow([]string{"4", "", "Sin fecha", "1", "", "", ""})
	return board.Cards(config.NewDefault("wb"), sh)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name                  string
		env                   string
		jsonF, table, compact bool
		want                  Format
	}{
		{"default", "", false, false, false, FormatTable},
		{"json flag wins", "compact", true, false, false, FormatJSON},
		{"compact flag", "json", false, false, true, FormatCompact},
		{"env json", "json", false, false, false, FormatJSON},
		{"env oneline", "oneline", false, false, false, FormatCompact},
		{"table flag beats env", "json", false, true, false, FormatTable},
		{"env mixed case", " JSON ", false, false, false, FormatJSON},
		{"env unknown", "yaml", false, false, false, FormatTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOutput, tt.env)
			assert.Equal(t, tt.want, Detect(tt.jsonF, tt.table, tt.compact))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"json", "table", "compact"} {
		f, ok := ParseFormat(name)
		require.True(t, ok, name)
		assert.Equal(t, name, f.String())
	}
	f, ok := ParseFormat("OneLine")
	require.True(t, ok)
	assert.Equal(t, FormatCompact, f)
	_, ok = ParseFormat("")
	assert.False(t, ok)
	assert.Equal(t, "auto", FormatAuto.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Diseño", truncate("Diseño", 6))
	assert.Equal(t, "Dis...", truncate("Diseño final", 6))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "   ab", padLeft("ab", 5))
}

func TestCardCompact(t *testing.T) {
	var buf bytes.Buffer
	CardCompact(&buf, cards(t), today)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "1 [Completado] Kickoff due:03-Mar-25", lines[0])
	assert.Equal(t, "2 [En curso] Requisitos after:1 due:08-Mar-25!", lines[1])
	assert.Equal(t, "3 [Pendiente] Entrega after:2 due:12-Mar-25", lines[2])
}

func TestGantt(t *testing.T) {
	DisableColor()
	var buf bytes.Buffer
	items := board.Timeline(cards(t), today, false)
	Gantt(&buf, items, today, 60)

	out := buf.String()
	assert.Contains(t, out, "02-Mar-25")
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "◆")
	assert.Contains(t, out, "no date: 4")
}

func TestChangesCompact(t *testing.T) {
	var buf bytes.Buffer
	ChangesCompact(&buf, schedule.Result{
		Root:    "1",
		Changes: []schedule.Change{{ID: "2", Old: "", New: "08-Mar-25"}},
	})
	assert.Equal(t, "root 1, 1 changed: 2:--->08-Mar-25\n", buf.String())

	buf.Reset()
	ChangesCompact(&buf, schedule.Result{Aborted: true, Reason: schedule.ReasonMissingRoles})
	assert.Equal(t, "skipped: missing column roles\n", buf.String())
}

func TestMatrixCompact(t *testing.T) {
	var buf bytes.Buffer
	MatrixCompact(&buf, board.Matrix{
		Milestones: []string{"Arranque", "Entrega"},
		Rows: []board.MatrixRow{{Project: "Norte", Cells: []board.MatrixCell{
			{Present: true, Expected: &today, Overdue: true},
			{},
		}}},
	})
	assert.Equal(t, "Norte: Arranque=10-Mar-25!\n", buf.String())
}

func TestJSONError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorResponse
	}{
		{
			name: "cell context lifted",
			err: clierr.New(clierr.ColumnNotFound, "column not found").
				WithDetails(map[string]any{"sheet": "Norte", "column": "Presupuesto", "columns": []string{"ID"}}),
			want: ErrorResponse{
				Error: "column not found", Code: clierr.ColumnNotFound, Exit: 1,
				Sheet: "Norte", Column: "Presupuesto",
				Details: map[string]any{"columns": []any{"ID"}},
			},
		},
		{
			name: "task context lifted",
			err:  clierr.New(clierr.RowNotFound, "task 9 not found").WithDetails(map[string]any{"project": "Sur", "id": "9"}),
			want: ErrorResponse{Error: "task 9 not found", Code: clierr.RowNotFound, Exit: 1, Sheet: "Sur", Task: "9"},
		},
		{
			name: "plain error",
			err:  errors.New("disk full"),
			want: ErrorResponse{Error: "disk full", Code: clierr.InternalError, Exit: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.want.Exit, JSONError(&buf, tt.err))

			var got ErrorResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewBatchResult(t *testing.T) {
	assert.Equal(t, BatchResult{ID: "1", OK: true}, NewBatchResult("1", nil))
	assert.Equal(t, BatchResult{ID: "2", Error: "boom", Code: clierr.BoundaryError},
		NewBatchResult("2", clierr.New(clierr.BoundaryError, "boom")))
	assert.Equal(t, BatchResult{ID: "3", Error: "io"}, NewBatchResult("3", errors.New("io")))
}
