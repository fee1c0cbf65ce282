package legacy

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

const export = `{
  // exported from the dashboard
  "template": {
    "headers": ["ID", "Hito", "Duracion", "Dependencia", "Fecha Esperada"],
    "rows": [[1, "Arranque", 2, null, ""], [2, "Entrega", 3.5, 1, "10-Mar-25"],],
  },
  "projects": {
    "Sur": {"headers": ["ID", "Hito"], "rows": [["1", "Arranque"]]},
    "Norte": {"headers": ["ID", "Hito"], "rows": [[true, "x"]]},
  },
  "contacts": [
    {"name": "Ana Ruiz", "email": "ana@example.com", "tags": "cliente, Norte"},
    {"name": "Luis", "tags": ["obra"]},
  ],
  "emailTemplates": [
    {"name": "Aviso", "subject": "{{proyecto}}", "to": "cliente", "body": "Hola"},
  ],
}`

func TestParse(t *testing.T) {
	exp, err := Parse([]byte(export))
	require.NoError(t, err)

	require.NotNil(t, exp.Template)
	assert.Equal(t, "Plantilla", exp.Template.Name)
	assert.Equal(t, []string{"1", "Arranque", "2", "", ""}, exp.Template.Rows[0])
	assert.Equal(t, "3.5", exp.Template.Rows[1][2], "numbers keep their literal text")

	require.Len(t, exp.Projects, 2)
	assert.Equal(t, "Norte", exp.Projects[0].Name, "object-keyed projects come sorted")
	assert.Equal(t, "true", exp.Projects[0].Rows[0][0])

	require.Len(t, exp.Contacts, 2)
	assert.Equal(t, []string{"cliente", "Norte"}, exp.Contacts[0].Tags)
	assert.Equal(t, []string{"obra"}, exp.Contacts[1].Tags)

	require.Len(t, exp.Emails, 1)
	assert.Equal(t, []string{"cliente"}, exp.Emails[0].To)
}

func TestParse_ProjectList(t *testing.T) {
	exp, err := Parse([]byte(`{"projects": [{"name": "Este", "headers": ["ID"], "rows": []}]}`))
	require.NoError(t, err)
	require.Len(t, exp.Projects, 1)
	assert.Equal(t, "Este", exp.Projects[0].Name)
	assert.Nil(t, exp.Template)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"template": [`},
		{"no headers", `{"template": {"rows": [[1]]}}`},
		{"unnamed project", `{"projects": [{"headers": ["ID"]}]}`},
		{"bad contact email", `{"contacts": [{"name": "X", "email": "no-at-sign"}]}`},
		{"unnamed email", `{"emailTemplates": [{"subject": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestApply(t *testing.T) {
	s, err := workbook.Init(filepath.Join(t.TempDir(), "plantrack"), "Obras", nil)
	require.NoError(t, err)
	_, err = s.CreateProject("Sur")
	require.NoError(t, err)

	exp, err := Parse([]byte(export))
	require.NoError(t, err)

	rep, err := Apply(s, exp, false)
	require.NoError(t, err)
	assert.False(t, rep.Template)
	assert.Equal(t, []string{"Norte"}, rep.Projects)
	assert.Equal(t, 2, rep.Contacts)
	assert.Equal(t, []string{"Aviso"}, rep.Emails)
	assert.Contains(t, rep.Skipped, "project Sur")

	again, err := Apply(s, exp, false)
	require.NoError(t, err)
	assert.Zero(t, again.Contacts)
	assert.Empty(t, again.Emails)

	rep, err = Apply(s, exp, true)
	require.NoError(t, err)
	assert.True(t, rep.Template)
	assert.ElementsMatch(t, []string{"Norte", "Sur"}, rep.Projects)

	tmpl, err := s.LoadTemplate()
	require.NoError(t, err)
	assert.Equal(t, 2, tmpl.Len())

	dir, err := s.LoadContacts()
	require.NoError(t, err)
	assert.Len(t, dir.Contacts, 2)

	entries, err := workbook.ReadLog(s.Dir(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, workbook.ActionImport, entries[len(entries)-1].Action)
}

func TestApply_MergesContacts(t *testing.T) {
	s, err := workbook.Init(filepath.Join(t.TempDir(), "plantrack"), "Obras", nil)
	require.NoError(t, err)

	exp, err := Parse([]byte(export))
	require.NoError(t, err)
	_, err = Apply(s, exp, false)
	require.NoError(t, err)

	update, err := Parse([]byte(`{"contacts": [
		{"name": "A. Ruiz", "email": "ANA@example.com", "company": "Obras SA", "tags": ["sur"]},
		{"name": "luis", "role": "jefe de obra"},
	]}`))
	require.NoError(t, err)

	rep, err := Apply(s, update, false)
	require.NoError(t, err)
	assert.Zero(t, rep.Contacts)
	assert.Equal(t, 2, rep.Merged)

	dir, err := s.LoadContacts()
	require.NoError(t, err)
	require.Len(t, dir.Contacts, 2)

	ana, err := dir.Find("Ana Ruiz")
	require.NoError(t, err)
	assert.Equal(t, "Obras SA", ana.Company)
	assert.Equal(t, "ana@example.com", ana.Email)
	assert.True(t, ana.HasTag("sur"))
	assert.True(t, ana.HasTag("cliente"))

	luis, err := dir.Find("Luis")
	require.NoError(t, err)
	assert.Equal(t, "jefe de obra", luis.Role)
}
