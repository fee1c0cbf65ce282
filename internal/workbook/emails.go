package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/mail"
)

const emailExt = ".md"

// EmailPath returns the file that stores the email template called name.
func (s *Store) EmailPath(name string) string {
	return filepath.Join(s.cfg.EmailsPath(), GenerateSlug(name)+emailExt)
}

// LoadEmail reads an email template by name or slug.
func (s *Store) LoadEmail(name string) (*mail.Template, error) {
	path := s.EmailPath(name)
	data, err := s.readFile(path)
	if errors.Is(err, ErrNotFound) {
		return nil, clierr.Newf(clierr.TemplateNotFound, "email template not found: %s", name).
			WithDetails(map[string]any{"template": name})
	}
	if err != nil {
		return nil, err
	}
	t, err := mail.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	t.File = path
	return t, nil
}

// SaveEmail writes an email template, creating the file if needed.
func (s *Store) SaveEmail(t *mail.Template) error {
	t.Name = strings.TrimSpace(t.Name)
	if GenerateSlug(t.Name) == "" {
		return clierr.Newf(clierr.InvalidInput, "invalid template name %q", t.Name)
	}
	data, err := t.Marshal()
	if err != nil {
		return err
	}
	t.File = s.EmailPath(t.Name)
	_, err = s.writeFile(t.File, data)
	return err
}

// ListEmails reads every email template, sorted by name. Malformed files
// are reported as warnings.
func (s *Store) ListEmails() ([]*mail.Template, []ReadWarning, error) {
	entries, err := os.ReadDir(s.cfg.EmailsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading emails directory: %w", err)
	}

	var out []*mail.Template
	var warnings []ReadWarning
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != emailExt {
			continue
		}
		path := filepath.Join(s.cfg.EmailsPath(), entry.Name())
		data, readErr := s.readFile(path)
		if readErr != nil {
			warnings = append(warnings, ReadWarning{File: entry.Name(), Err: readErr})
			continue
		}
		t, parseErr := mail.Parse(data)
		if parseErr != nil {
			warnings = append(warnings, ReadWarning{File: entry.Name(), Err: parseErr})
			continue
		}
		t.File = path
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, warnings, nil
}

// DeleteEmail removes an email template.
func (s *Store) DeleteEmail(name string) error {
	if _, err := s.LoadEmail(name); err != nil {
		return err
	}
	path := s.EmailPath(name)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting email template: %w", err)
	}
	s.forget(path)
	return nil
}
