// Package sheet holds the in-memory table representation shared by the
// template and every project: an ordered header and ragged string rows.
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Sheet is one table: the template or a single project's schedule.
type Sheet struct {
	Name   string     `yaml:"name" json:"name"`
	Header []string   `yaml:"header" json:"header"`
	Rows   [][]string `yaml:"rows" json:"rows"`
}

// New creates an empty sheet with a copy of the given header.
func New(name string, header []string) *Sheet {
	return &Sheet{Name: name, Header: append([]string{}, header...)}
}

// Len returns the number of rows.
func (s *Sheet) Len() int {
	return len(s.Rows)
}

// Cell returns the value at (row, col). Reads past the end of a ragged
// row or outside the sheet return "".
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 {
		return ""
	}
	r := s.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// SetCell writes v at (row, col), padding a short row as needed.
func (s *Sheet) SetCell(row, col int, v string) error {
	if row < 0 || row >= len(s.Rows) {
		return fmt.Errorf("row %d out of range (0..%d)", row, len(s.Rows)-1)
	}
	if col < 0 {
		return fmt.Errorf("column %d out of range", col)
	}
	for len(s.Rows[row]) <= col {
		s.Rows[row] = append(s.Rows[row], "")
	}
	s.Rows[row][col] = v
	return nil
}

// ColumnIndex returns the index of the header matching name
// (case-insensitive, surrounding whitespace ignored), or -1.
func (s *Sheet) ColumnIndex(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range s.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

// RowByID returns the index of the first row whose idCol cell equals id
// after trimming, or -1.
func (s *Sheet) RowByID(idCol int, id string) int {
	id = strings.TrimSpace(id)
	if id == "" || idCol < 0 {
		return -1
	}
	for i := range s.Rows {
		if strings.TrimSpace(s.Cell(i, idCol)) == id {
			return i
		}
	}
	return -1
}

// Record returns the row as a header-keyed map. Used for placeholder
// substitution and JSON output.
func (s *Sheet) Record(row int) map[string]string {
	rec := make(map[string]string, len(s.Header))
	for i, h := range s.Header {
		rec[h] = s.Cell(row, i)
	}
	return rec
}

// AppendRow adds a row, padded or truncated to the header width, and
// returns its index.
func (s *Sheet) AppendRow(cells []string) int {
	row := make([]string, len(s.Header))
	copy(row, cells)
	s.Rows = append(s.Rows, row)
	return len(s.Rows) - 1
}

// DeleteRow removes the row at index i.
func (s *Sheet) DeleteRow(i int) error {
	if i < 0 || i >= len(s.Rows) {
		return fmt.Errorf("row %d out of range (0..%d)", i, len(s.Rows)-1)
	}
	s.Rows = append(s.Rows[:i], s.Rows[i+1:]...)
	return nil
}

// Clone returns a deep copy under a new name.
func (s *Sheet) Clone(name string) *Sheet {
	c := New(name, s.Header)
	c.Rows = make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		c.Rows[i] = append([]string{}, r...)
	}
	return c
}

// ReadCSV parses CSV data whose first record is the header.
func ReadCSV(name string, r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading csv: no header row")
	}
	s := New(name, records[0])
	for _, rec := range records[1:] {
		s.Rows = append(s.Rows, append([]string{}, rec...))
	}
	return s, nil
}

// WriteCSV writes the header and rows as CSV.
func (s *Sheet) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i := range s.Rows {
		row := make([]string, len(s.Header))
		for c := range row {
			row[c] = s.Cell(i, c)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
