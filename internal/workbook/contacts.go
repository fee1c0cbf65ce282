package workbook

import (
	"errors"

	"github.com/twiced-technology-gmbh/plantrack/internal/contact"
)

type contactsFile struct {
	Contacts []contact.Contact `yaml:"contacts"`
}

// LoadContacts reads contacts.yml. A missing file is an empty directory.
func (s *Store) LoadContacts() (*contact.Directory, error) {
	var f contactsFile
	err := s.loadYAML(s.path(ContactsFile), &f)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return &contact.Directory{Contacts: f.Contacts}, nil
}

// SaveContacts writes contacts.yml.
func (s *Store) SaveContacts(d *contact.Directory) error {
	return s.saveYAML(s.path(ContactsFile), contactsFile{Contacts: d.Contacts})
}
