// Package mail renders the workbook's email templates: placeholder
// substitution, recipient resolution from contact tags, HTML and terminal
// rendering, and the local outbox.
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Template is an email template stored as markdown with YAML frontmatter.
// To and Cc hold contact tags, which may contain placeholders.
type Template struct {
	Name    string   `yaml:"name" json:"name"`
	Subject string   `yaml:"subject" json:"subject"`
	To      []string `yaml:"to,omitempty" json:"to,omitempty"`
	Cc      []string `yaml:"cc,omitempty" json:"cc,omitempty"`

	// Body is the markdown content below the frontmatter (not in YAML).
	Body string `yaml:"-" json:"body,omitempty"`

	// File is the path to the template file (not in YAML).
	File string `yaml:"-" json:"file,omitempty"`
}

// Parse reads a template file's contents.
func Parse(data []byte) (*Template, error) {
	fm, body, err := SplitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	var t Template
	if err := yaml.Unmarshal(fm, &t); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	t.Body = body
	return &t, nil
}

// Marshal serializes t as markdown with YAML frontmatter.
func (t *Template) Marshal() ([]byte, error) {
	fm, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n")
	if t.Body != "" {
		buf.WriteString("\n")
		buf.WriteString(t.Body)
		if !strings.HasSuffix(t.Body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// SplitFrontmatter splits a markdown file into YAML frontmatter and body.
// The file must start with "---\n".
func SplitFrontmatter(data []byte) ([]byte, string, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	if !strings.HasPrefix(content, "---\n") {
		return nil, "", errors.New("file does not start with YAML frontmatter (---)")
	}

	rest := content[4:]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		if !strings.HasSuffix(rest, "\n---") {
			return nil, "", errors.New("unclosed frontmatter (missing closing ---)")
		}
		idx = len(rest) - len("\n---")
	}

	fm := rest[:idx]
	body := ""
	closingEnd := idx + len("\n---\n")
	if closingEnd < len(rest) {
		body = strings.TrimLeft(rest[closingEnd:], "\n")
	}

	return []byte(fm), body, nil
}
