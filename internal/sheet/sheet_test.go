package sheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Sheet {
	s := New("alpha", []string{"ID", "Tarea", "Dias"})
	s.Rows = [][]string{
		{"1", "Kickoff", "2"},
		{"2", "Design"}, // ragged
		{" 3 ", "Build", "10"},
	}
	return s
}

func TestCell(t *testing.T) {
	s := sample()
	assert.Equal(t, "Kickoff", s.Cell(0, 1))
	assert.Equal(t, "", s.Cell(1, 2), "ragged row reads as empty")
	assert.Equal(t, "", s.Cell(9, 0))
	assert.Equal(t, "", s.Cell(0, -1))
}

func TestSetCell_PadsRaggedRow(t *testing.T) {
	s := sample()
	require.NoError(t, s.SetCell(1, 2, "4"))
	assert.Equal(t, []string{"2", "Design", "4"}, s.Rows[1])

	assert.Error(t, s.SetCell(5, 0, "x"))
	assert.Error(t, s.SetCell(0, -1, "x"))
}

func TestColumnIndex(t *testing.T) {
	s := sample()
	assert.Equal(t, 2, s.ColumnIndex("dias"))
	assert.Equal(t, 1, s.ColumnIndex(" TAREA "))
	assert.Equal(t, -1, s.ColumnIndex("Estado"))
}

func TestRowByID(t *testing.T) {
	s := sample()
	assert.Equal(t, 2, s.RowByID(0, "3"))
	assert.Equal(t, -1, s.RowByID(0, "4"))
	assert.Equal(t, -1, s.RowByID(0, ""))
}

func TestAppendDeleteRow(t *testing.T) {
	s := sample()
	idx := s.AppendRow([]string{"4", "Ship"})
	assert.Equal(t, 3, idx)
	assert.Equal(t, []string{"4", "Ship", ""}, s.Rows[3])

	require.NoError(t, s.DeleteRow(0))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "2", s.Cell(0, 0))
	assert.Error(t, s.DeleteRow(3))
}

func TestClone_IsDeep(t *testing.T) {
	s := sample()
	c := s.Clone("beta")
	require.NoError(t, c.SetCell(0, 1, "Changed"))
	c.Header[0] = "X"

	assert.Equal(t, "beta", c.Name)
	assert.Equal(t, "Kickoff", s.Cell(0, 1))
	assert.Equal(t, "ID", s.Header[0])
}

func TestRecord(t *testing.T) {
	rec := sample().Record(1)
	assert.Equal(t, map[string]string{"ID": "2", "Tarea": "Design", "Dias": ""}, rec)
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample().WriteCSV(&buf))
	assert.Equal(t, "ID,Tarea,Dias\n1,Kickoff,2\n2,Design,\n\" 3 \",Build,10\n", buf.String())

	back, err := ReadCSV("alpha", strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Tarea", "Dias"}, back.Header)
	assert.Equal(t, 3, back.Len())
	assert.Equal(t, "Design", back.Cell(1, 1))

	_, err = ReadCSV("empty", strings.NewReader(""))
	assert.Error(t, err)
}
