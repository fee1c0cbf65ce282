// Package output renders workbook sheets, boards, timelines and errors as
// lipgloss tables, compact one-line records or JSON.
package output

import (
	"os"
	"strings"
)

// EnvOutput selects the default format when no flag is given.
const EnvOutput = "PLANTRACK_OUTPUT"

// Format represents an output format.
type Format int

const (
	// FormatAuto uses the default format (table).
	FormatAuto Format = iota
	// FormatJSON outputs JSON.
	FormatJSON
	// FormatTable outputs a human-readable table.
	FormatTable
	// FormatCompact outputs one record per line.
	FormatCompact
)

var formatNames = map[string]Format{
	"json":    FormatJSON,
	"table":   FormatTable,
	"compact": FormatCompact,
	"oneline": FormatCompact,
}

// ParseFormat maps a format name, case-insensitively, to its Format.
func ParseFormat(name string) (Format, bool) {
	f, ok := formatNames[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// String returns the canonical name of f.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCompact:
		return "compact"
	case FormatTable:
		return "table"
	}
	return "auto"
}

// Detect picks the format from the output flags, then PLANTRACK_OUTPUT,
// falling back to table.
func Detect(jsonFlag, tableFlag, compactFlag bool) Format {
	switch {
	case jsonFlag:
		return FormatJSON
	case compactFlag:
		return FormatCompact
	case tableFlag:
		return FormatTable
	}
	if f, ok := ParseFormat(os.Getenv(EnvOutput)); ok {
		return f
	}
	return FormatTable
}
