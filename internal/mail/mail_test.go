package mail

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/contact"
	"github.com/twiced-technology-gmbh/plantrack/internal/date"
)

const sample = `---
name: Aviso de hito
subject: '{{Proyecto}}: {{ Hito }} el {{fecha esperada}}'
to:
    - '{{proyecto}}'
cc:
    - direccion
---

Hola,

El hito **{{hito}}** de {{proyecto}} vence el {{Fecha Esperada}}.
Responsable: {{responsable}} ({{desconocido}})
`

func values() Values {
	v := NewValues("Obra Norte", date.New(2025, time.March, 3))
	v.AddRecord(map[string]string{
		"Hito":           "Cimentación",
		"Fecha Esperada": "14-Mar-25",
		"Responsable":    "Ana",
		"Proyecto":       "must not override",
	})
	return v
}

func directory(t *testing.T) *contact.Directory {
	t.Helper()
	d := &contact.Directory{}
	require.NoError(t, d.Add(contact.New("Ana Ruiz", "ana@example.com", "Obra Norte", "direccion")))
	require.NoError(t, d.Add(contact.New("Luis Gil", "LUIS@example.com", "obra norte")))
	require.NoError(t, d.Add(contact.New("Marta", "", "direccion")))
	require.NoError(t, d.Add(contact.New("Otro", "otro@example.com", "obra sur")))
	return d
}

func TestParseMarshal(t *testing.T) {
	tmpl, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "Aviso de hito", tmpl.Name)
	assert.Equal(t, []string{"{{proyecto}}"}, tmpl.To)
	assert.True(t, strings.HasPrefix(tmpl.Body, "Hola,"))

	data, err := tmpl.Marshal()
	require.NoError(t, err)
	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, tmpl, again)
}

func TestSplitFrontmatter_Errors(t *testing.T) {
	_, _, err := SplitFrontmatter([]byte("no frontmatter"))
	assert.Error(t, err)
	_, _, err = SplitFrontmatter([]byte("---\nname: x\n"))
	assert.Error(t, err)

	fm, body, err := SplitFrontmatter([]byte("---\r\nname: x\r\n---"))
	require.NoError(t, err)
	assert.Equal(t, "name: x", string(fm))
	assert.Empty(t, body)
}

func TestSubstitute(t *testing.T) {
	v := values()
	tests := []struct {
		in      string
		want    string
		unknown []string
	}{
		{"{{proyecto}}", "Obra Norte", nil},
		{"{{ PROYECTO }} / {{fecha}}", "Obra Norte / 03-Mar-25", nil},
		{"{{fecha   esperada}}", "14-Mar-25", nil},
		{"{{nope}} and {{nope}} {{x}}", "{{nope}} and {{nope}} {{x}}", []string{"nope", "x"}},
		{"{{ Foo }} {{foo}} {{FOO  bar}}", "{{ Foo }} {{foo}} {{FOO  bar}}", []string{"foo", "foo bar"}},
		{"no placeholders", "no placeholders", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, unknown := Substitute(tt.in, v)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.unknown, unknown)
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"b", "proyecto"}, Placeholders("{{proyecto}} {{ b }} {{proyecto}}"))
	assert.Nil(t, Placeholders("plain"))
	assert.Equal(t, []string{"fecha esperada", "proyecto"},
		Placeholders("{{ Proyecto }} {{proyecto}} {{Fecha  Esperada}} {{fecha esperada}}"))
}

func TestResolveRecipients(t *testing.T) {
	r := ResolveRecipients(directory(t), []string{"{{proyecto}}", "inexistente"}, []string{"Direccion"}, values())

	assert.Equal(t, []string{`"Ana Ruiz" <ana@example.com>`, `"Luis Gil" <LUIS@example.com>`}, r.To)
	assert.Empty(t, r.Cc, "Ana is already in To")
	assert.Equal(t, []string{"Marta"}, r.NoEmail)
	assert.Equal(t, []string{"inexistente"}, r.UnmatchedTag)
}

func TestRender(t *testing.T) {
	tmpl, err := Parse([]byte(sample))
	require.NoError(t, err)

	msg, err := Render(tmpl, values(), directory(t), "pm@example.com")
	require.NoError(t, err)

	assert.Equal(t, "Obra Norte: Cimentación el 14-Mar-25", msg.Subject)
	assert.Equal(t, "Obra Norte", msg.Project)
	assert.Contains(t, msg.Body, "El hito **Cimentación** de Obra Norte vence el 14-Mar-25.")
	assert.Contains(t, msg.HTML, "<strong>Cimentación</strong>")
	assert.Contains(t, msg.HTML, "<br")
	assert.Equal(t, []string{"desconocido"}, msg.Unknown)
	assert.Len(t, msg.To, 2)
}

func TestPreview(t *testing.T) {
	msg := &Message{Subject: "Hola", To: []string{"a@example.com"}, Body: "# Título\n\ntexto"}
	out, err := Preview(msg, 60, false)
	require.NoError(t, err)
	assert.Contains(t, out, "Hola")
	assert.Contains(t, out, "a@example.com")
	assert.Contains(t, out, "Título")
}

func TestOutbox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.jsonl")
	var logs bytes.Buffer
	box := NewOutbox(path, slog.New(slog.NewTextHandler(&logs, nil)))
	box.now = func() time.Time { return time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC) }

	_, err := box.Send(&Message{Template: "vacío"})
	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierr.NoRecipients, ce.Code)

	entry, err := box.Send(&Message{Template: "aviso", Subject: "S", To: []string{"a@example.com"}})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "not delivered")
	assert.Contains(t, logs.String(), "subject=S")

	entries, err := ReadOutbox(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, "S", entries[0].Subject)
	assert.True(t, entries[0].Timestamp.Equal(box.now()))

	none, err := ReadOutbox(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, none)
}
