// Package legacy imports the JSON export of the browser dashboard that
// plantrack replaces. The export is read as JSONC: comments and trailing
// commas are tolerated because exports are often edited by hand.
package legacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/twiced-technology-gmbh/plantrack/internal/contact"
	"github.com/twiced-technology-gmbh/plantrack/internal/mail"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

// Export is a parsed dashboard export.
type Export struct {
	Template *sheet.Sheet
	Projects []*sheet.Sheet
	Contacts []contact.Contact
	Emails   []*mail.Template
}

type rawExport struct {
	Template json.RawMessage `json:"template"`
	Projects json.RawMessage `json:"projects"`
	Contacts []rawContact    `json:"contacts"`
	Emails   []rawEmail      `json:"emailTemplates"`
}

type rawTable struct {
	Name    string              `json:"name"`
	Headers []json.RawMessage   `json:"headers"`
	Rows    [][]json.RawMessage `json:"rows"`
}

type rawContact struct {
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Company string          `json:"company"`
	Role    string          `json:"role"`
	Tags    json.RawMessage `json:"tags"`
}

type rawEmail struct {
	Name    string          `json:"name"`
	Subject string          `json:"subject"`
	To      json.RawMessage `json:"to"`
	Cc      json.RawMessage `json:"cc"`
	Body    string          `json:"body"`
}

// Parse strips JSONC comments and trailing commas from data and decodes
// the export. Projects may be a list of named tables or an object keyed
// by project name.
func Parse(data []byte) (*Export, error) {
	var raw rawExport
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}

	out := &Export{}
	if len(raw.Template) > 0 && !isNull(raw.Template) {
		var t rawTable
		if err := json.Unmarshal(raw.Template, &t); err != nil {
			return nil, fmt.Errorf("parsing template: %w", err)
		}
		tmpl, err := t.sheet("Plantilla")
		if err != nil {
			return nil, fmt.Errorf("template: %w", err)
		}
		out.Template = tmpl
	}

	projects, err := parseProjects(raw.Projects)
	if err != nil {
		return nil, err
	}
	out.Projects = projects

	for i, rc := range raw.Contacts {
		c := contact.New(rc.Name, rc.Email, stringList(rc.Tags)...)
		c.Company = strings.TrimSpace(rc.Company)
		c.Role = strings.TrimSpace(rc.Role)
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("contact %d: %w", i+1, err)
		}
		out.Contacts = append(out.Contacts, c)
	}

	for i, re := range raw.Emails {
		if strings.TrimSpace(re.Name) == "" {
			return nil, fmt.Errorf("email template %d has no name", i+1)
		}
		out.Emails = append(out.Emails, &mail.Template{
			Name:    strings.TrimSpace(re.Name),
			Subject: re.Subject,
			To:      stringList(re.To),
			Cc:      stringList(re.Cc),
			Body:    re.Body,
		})
	}
	return out, nil
}

// ReadFile reads and parses an export file.
func ReadFile(path string) (*Export, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied import path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	exp, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return exp, nil
}

func parseProjects(data json.RawMessage) ([]*sheet.Sheet, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isNull(data) {
		return nil, nil
	}

	var tables []rawTable
	if data[0] == '{' {
		var byName map[string]rawTable
		if err := json.Unmarshal(data, &byName); err != nil {
			return nil, fmt.Errorf("parsing projects: %w", err)
		}
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			t := byName[name]
			if t.Name == "" {
				t.Name = name
			}
			tables = append(tables, t)
		}
	} else if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parsing projects: %w", err)
	}

	out := make([]*sheet.Sheet, 0, len(tables))
	for i, t := range tables {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("project %d has no name", i+1)
		}
		sh, err := t.sheet(t.Name)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", t.Name, err)
		}
		out = append(out, sh)
	}
	return out, nil
}

func (t rawTable) sheet(name string) (*sheet.Sheet, error) {
	if len(t.Headers) == 0 {
		return nil, errors.New("no headers")
	}
	header := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = strings.TrimSpace(cellText(h))
	}
	sh := sheet.New(strings.TrimSpace(name), header)
	for _, r := range t.Rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = cellText(c)
		}
		sh.Rows = append(sh.Rows, cells)
	}
	return sh, nil
}

// cellText renders a JSON cell as sheet text. Numbers keep their literal
// form, null becomes empty.
func cellText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return strconv.FormatBool(b)
	}
	return string(raw)
}

// stringList accepts ["a", "b"] or "a, b".
func stringList(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var list []string
	if json.Unmarshal(raw, &list) != nil {
		list = strings.Split(cellText(raw), ",")
	}
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
