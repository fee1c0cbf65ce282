package workbook

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

const projectExt = ".yml"

// ReadWarning describes a project file that could not be parsed during
// lenient reading.
type ReadWarning struct {
	File string // base filename
	Err  error
}

// ProjectPath returns the file that stores the project called name.
func (s *Store) ProjectPath(name string) string {
	return filepath.Join(s.cfg.ProjectsPath(), GenerateSlug(name)+projectExt)
}

// ProjectExists reports whether a project file exists for name.
func (s *Store) ProjectExists(name string) bool {
	_, err := os.Stat(s.ProjectPath(name))
	return err == nil
}

// LoadProject reads a project by name or slug.
func (s *Store) LoadProject(name string) (*sheet.Sheet, error) {
	if GenerateSlug(name) == "" {
		return nil, invalidProjectName(name)
	}
	sh, err := s.loadSheet(s.ProjectPath(name))
	if errors.Is(err, ErrNotFound) {
		return nil, clierr.Newf(clierr.ProjectNotFound, "project not found: %s", name).
			WithDetails(map[string]any{"project": name})
	}
	return sh, err
}

// SaveProject writes a project. It matches schedule.PersistFunc.
func (s *Store) SaveProject(sh *sheet.Sheet) error {
	_, err := s.saveSheet(s.ProjectPath(sh.Name), sh)
	return err
}

// ListProjects reads every project, sorted by name. Malformed files are
// skipped and reported as warnings.
func (s *Store) ListProjects() ([]*sheet.Sheet, []ReadWarning, error) {
	entries, err := os.ReadDir(s.cfg.ProjectsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading projects directory: %w", err)
	}

	var projects []*sheet.Sheet
	var warnings []ReadWarning
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != projectExt {
			continue
		}
		sh, readErr := s.loadSheet(filepath.Join(s.cfg.ProjectsPath(), entry.Name()))
		if readErr != nil {
			warnings = append(warnings, ReadWarning{File: entry.Name(), Err: readErr})
			continue
		}
		projects = append(projects, sh)
	}
	sort.Slice(projects, func(i, j int) bool {
		return strings.ToLower(projects[i].Name) < strings.ToLower(projects[j].Name)
	})
	return projects, warnings, nil
}

// CreateProject clones the template into a new project.
func (s *Store) CreateProject(name string) (*sheet.Sheet, error) {
	tmpl, err := s.LoadTemplate()
	if err != nil {
		return nil, err
	}
	return s.addProject(tmpl.Clone(strings.TrimSpace(name)))
}

// ImportProject stores sh as a new project, or replaces an existing one
// when overwrite is set.
func (s *Store) ImportProject(sh *sheet.Sheet, overwrite bool) (*sheet.Sheet, error) {
	sh.Name = strings.TrimSpace(sh.Name)
	if overwrite && s.ProjectExists(sh.Name) {
		if _, err := s.LoadProject(sh.Name); err != nil {
			return nil, err
		}
		return sh, s.SaveProject(sh)
	}
	return s.addProject(sh)
}

func (s *Store) addProject(sh *sheet.Sheet) (*sheet.Sheet, error) {
	if GenerateSlug(sh.Name) == "" {
		return nil, invalidProjectName(sh.Name)
	}
	if s.ProjectExists(sh.Name) {
		return nil, clierr.Newf(clierr.ProjectAlreadyExists, "project already exists: %s", sh.Name).
			WithDetails(map[string]any{"project": sh.Name, "file": s.ProjectPath(sh.Name)})
	}
	if err := s.SaveProject(sh); err != nil {
		return nil, err
	}
	s.log.Debug("project created", "project", sh.Name, "rows", sh.Len())
	return sh, nil
}

// DeleteProject removes a project file.
func (s *Store) DeleteProject(name string) error {
	if _, err := s.LoadProject(name); err != nil {
		return err
	}
	path := s.ProjectPath(name)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	s.forget(path)
	return nil
}

// RenameProject changes a project's name and moves its file.
func (s *Store) RenameProject(oldName, newName string) (*sheet.Sheet, error) {
	sh, err := s.LoadProject(oldName)
	if err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)
	if GenerateSlug(newName) == "" {
		return nil, invalidProjectName(newName)
	}

	oldPath := s.ProjectPath(oldName)
	sh.Name = newName
	if s.ProjectPath(newName) == oldPath {
		return sh, s.SaveProject(sh)
	}
	if _, err := s.addProject(sh); err != nil {
		return nil, err
	}
	if err := os.Remove(oldPath); err != nil {
		return nil, fmt.Errorf("removing old project file: %w", err)
	}
	s.forget(oldPath)
	return sh, nil
}

// ExportCSV writes a project as CSV.
func (s *Store) ExportCSV(name string, w io.Writer) error {
	sh, err := s.LoadProject(name)
	if err != nil {
		return err
	}
	return sh.WriteCSV(w)
}

// ImportCSV reads a CSV sheet and stores it as project name.
func (s *Store) ImportCSV(name string, r io.Reader, overwrite bool) (*sheet.Sheet, error) {
	sh, err := sheet.ReadCSV(name, r)
	if err != nil {
		return nil, clierr.Newf(clierr.InvalidInput, "%v", err)
	}
	return s.ImportProject(sh, overwrite)
}

func invalidProjectName(name string) *clierr.Error {
	return clierr.Newf(clierr.InvalidInput, "invalid project name %q", name).
		WithDetails(map[string]any{"project": name})
}
