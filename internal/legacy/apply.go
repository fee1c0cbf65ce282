package legacy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
	"github.com/twiced-technology-gmbh/plantrack/internal/contact"
	"github.com/twiced-technology-gmbh/plantrack/internal/workbook"
)

// Report lists what an import wrote and what it left alone.
type Report struct {
	Template bool     `json:"template"`
	Projects []string `json:"projects"`
	Contacts int      `json:"contacts"`
	Merged   int      `json:"merged_contacts"`
	Emails   []string `json:"emails"`
	Skipped  []string `json:"skipped,omitempty"`
}

// Apply writes exp into the workbook. Existing projects, email templates
// and the template are replaced only when overwrite is set. A contact
// matching an existing one by email address, or else by name, is merged
// into it: empty fields are filled and tags added.
func Apply(s *workbook.Store, exp *Export, overwrite bool) (*Report, error) {
	rep := &Report{Projects: []string{}, Emails: []string{}}

	if exp.Template != nil {
		if overwrite {
			if _, err := s.LoadTemplate(); err != nil && !isCode(err, clierr.TemplateNotFound) {
				return rep, err
			}
			if err := s.SaveTemplate(exp.Template); err != nil {
				return rep, err
			}
			rep.Template = true
		} else {
			rep.Skipped = append(rep.Skipped, "template (use --overwrite to replace)")
		}
	}

	for _, sh := range exp.Projects {
		if !overwrite && s.ProjectExists(sh.Name) {
			rep.Skipped = append(rep.Skipped, "project "+sh.Name)
			continue
		}
		if _, err := s.ImportProject(sh, overwrite); err != nil {
			return rep, err
		}
		rep.Projects = append(rep.Projects, sh.Name)
	}

	if len(exp.Contacts) > 0 {
		dir, err := s.LoadContacts()
		if err != nil {
			return rep, err
		}
		for _, c := range exp.Contacts {
			if cur := match(dir, c); cur != nil {
				if cur.Merge(c) {
					rep.Merged++
				} else {
					rep.Skipped = append(rep.Skipped, "contact "+c.Name)
				}
				continue
			}
			if err := dir.Add(c); err != nil {
				return rep, err
			}
			rep.Contacts++
		}
		if rep.Contacts > 0 || rep.Merged > 0 {
			if err := s.SaveContacts(dir); err != nil {
				return rep, err
			}
		}
	}

	for _, t := range exp.Emails {
		if _, err := s.LoadEmail(t.Name); err == nil && !overwrite {
			rep.Skipped = append(rep.Skipped, "email "+t.Name)
			continue
		} else if err != nil && !isCode(err, clierr.TemplateNotFound) {
			return rep, err
		}
		if err := s.SaveEmail(t); err != nil {
			return rep, err
		}
		rep.Emails = append(rep.Emails, t.Name)
	}

	if rep.Template || len(rep.Projects) > 0 || rep.Contacts > 0 || rep.Merged > 0 || len(rep.Emails) > 0 {
		s.LogMutation(workbook.ActionImport, "", "", summary(rep))
	}
	return rep, nil
}

func match(dir *contact.Directory, c contact.Contact) *contact.Contact {
	for i := range dir.Contacts {
		cur := &dir.Contacts[i]
		if c.Email != "" && strings.EqualFold(cur.Email, c.Email) {
			return cur
		}
		if c.Email == "" && strings.EqualFold(cur.Name, c.Name) {
			return cur
		}
	}
	return nil
}

func isCode(err error, code string) bool {
	var ce *clierr.Error
	return errors.As(err, &ce) && ce.Code == code
}

func summary(rep *Report) string {
	var parts []string
	if rep.Template {
		parts = append(parts, "template")
	}
	if n := len(rep.Projects); n > 0 {
		parts = append(parts, plural(n, "project"))
	}
	if rep.Contacts > 0 {
		parts = append(parts, plural(rep.Contacts, "contact"))
	}
	if rep.Merged > 0 {
		parts = append(parts, plural(rep.Merged, "merged contact"))
	}
	if n := len(rep.Emails); n > 0 {
		parts = append(parts, plural(n, "email template"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
