package workbook

import (
	"errors"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

// TemplateName is the sheet name of the template.
const TemplateName = "Plantilla"

// DefaultHeader is the column layout of a new workbook's template.
var DefaultHeader = []string{
	"ID", "Fase", "Hito", "Tarea", "Responsable",
	"Duracion", "Dependencia", "Fecha Esperada", "Estado",
}

// DefaultTemplate returns the starter template written by init.
func DefaultTemplate() *sheet.Sheet {
	sh := sheet.New(TemplateName, DefaultHeader)
	for _, r := range [][]string{
		{"1", "Inicio", "Arranque", "Reunión de arranque", "", "1", "", "", "Pendiente"},
		{"2", "Inicio", "", "Levantamiento de requisitos", "", "5", "1", "", "Pendiente"},
		{"3", "Diseño", "Diseño aprobado", "Diseño y aprobación", "", "10", "2", "", "Pendiente"},
		{"4", "Ejecución", "", "Implementación", "", "20", "3", "", "Pendiente"},
		{"5", "Cierre", "Entrega", "Entrega final", "", "2", "4", "", "Pendiente"},
	} {
		sh.AppendRow(r)
	}
	return sh
}

// TemplatePath returns the absolute path of the template file.
func (s *Store) TemplatePath() string {
	return s.path(TemplateFile)
}

// LoadTemplate reads the template sheet.
func (s *Store) LoadTemplate() (*sheet.Sheet, error) {
	sh, err := s.loadSheet(s.TemplatePath())
	if errors.Is(err, ErrNotFound) {
		return nil, clierr.New(clierr.TemplateNotFound, "template.yml not found (run 'plantrack init')")
	}
	return sh, err
}

// SaveTemplate writes the template sheet.
func (s *Store) SaveTemplate(sh *sheet.Sheet) error {
	sh.Name = TemplateName
	_, err := s.saveSheet(s.TemplatePath(), sh)
	return err
}
