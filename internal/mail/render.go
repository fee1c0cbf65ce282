package mail

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/twiced-technology-gmbh/plantrack/internal/contact"
)

// defaultPreviewWidth is used when the terminal width is unknown.
const defaultPreviewWidth = 80

var (
	htmlMarkdown     goldmark.Markdown
	htmlMarkdownOnce sync.Once
)

func markdown() goldmark.Markdown {
	htmlMarkdownOnce.Do(func() {
		htmlMarkdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		)
	})
	return htmlMarkdown
}

// Message is a template rendered for one project.
type Message struct {
	Template     string   `json:"template"`
	Project      string   `json:"project,omitempty"`
	From         string   `json:"from,omitempty"`
	Subject      string   `json:"subject"`
	To           []string `json:"to"`
	Cc           []string `json:"cc,omitempty"`
	Body         string   `json:"body"`
	HTML         string   `json:"html"`
	Unknown      []string `json:"unknown_placeholders,omitempty"`
	NoEmail      []string `json:"no_email,omitempty"`
	UnmatchedTag []string `json:"unmatched_tags,omitempty"`
}

// Render substitutes v into t, resolves recipients from dir and converts
// the body to HTML.
func Render(t *Template, v Values, dir *contact.Directory, from string) (*Message, error) {
	subject, unknownSubject := Substitute(t.Subject, v)
	body, unknownBody := Substitute(t.Body, v)

	htmlBody, err := ToHTML(body)
	if err != nil {
		return nil, err
	}

	project, _ := v.Get(KeyProject)
	rcpt := ResolveRecipients(dir, t.To, t.Cc, v)

	return &Message{
		Template:     t.Name,
		Project:      project,
		From:         from,
		Subject:      subject,
		To:           rcpt.To,
		Cc:           rcpt.Cc,
		Body:         body,
		HTML:         htmlBody,
		Unknown:      mergeSorted(unknownSubject, unknownBody),
		NoEmail:      rcpt.NoEmail,
		UnmatchedTag: rcpt.UnmatchedTag,
	}, nil
}

// ToHTML converts markdown to an HTML fragment.
func ToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown().Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	return buf.String(), nil
}

// Preview renders the message headers and body for a terminal.
func Preview(m *Message, width int, color bool) (string, error) {
	if width <= 0 {
		width = defaultPreviewWidth
	}
	style := styles.NoTTYStyle
	if color {
		style = styles.DarkStyle
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating preview renderer: %w", err)
	}

	var doc strings.Builder
	fmt.Fprintf(&doc, "**Para:** %s\n\n", joinOrDash(m.To))
	if len(m.Cc) > 0 {
		fmt.Fprintf(&doc, "**CC:** %s\n\n", strings.Join(m.Cc, ", "))
	}
	fmt.Fprintf(&doc, "**Asunto:** %s\n\n---\n\n", m.Subject)
	doc.WriteString(m.Body)

	out, err := r.Render(doc.String())
	if err != nil {
		return "", fmt.Errorf("rendering preview: %w", err)
	}
	return out, nil
}

func joinOrDash(addrs []string) string {
	if len(addrs) == 0 {
		return "-"
	}
	return strings.Join(addrs, ", ")
}

func mergeSorted(a, b []string) []string {
	set := map[string]bool{}
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		set[s] = true
	}
	return sortedKeys(set)
}
