// Package contact manages the workbook's address book. Contacts carry
// free-form tags that email templates use to pick recipients.
package contact

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
)

// minRefLength is the shortest ID prefix accepted as a contact reference.
const minRefLength = 4

// Contact is one address book entry.
type Contact struct {
	ID      uuid.UUID `yaml:"id" json:"id"`
	Name    string    `yaml:"name" json:"name"`
	Email   string    `yaml:"email,omitempty" json:"email,omitempty"`
	Company string    `yaml:"company,omitempty" json:"company,omitempty"`
	Role    string    `yaml:"role,omitempty" json:"role,omitempty"`
	Tags    []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// New returns a contact with a fresh random ID.
func New(name, email string, tags ...string) Contact {
	return Contact{
		ID:    uuid.New(),
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
		Tags:  NormalizeTags(tags),
	}
}

// HasTag reports whether the contact carries tag, ignoring case.
func (c Contact) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Merge fills c's empty email, company and role from other and adds
// other's tags. ID and name are kept. It reports whether c changed.
func (c *Contact) Merge(other Contact) bool {
	changed := false
	fill := func(dst *string, src string) {
		if *dst == "" && strings.TrimSpace(src) != "" {
			*dst = strings.TrimSpace(src)
			changed = true
		}
	}
	fill(&c.Email, other.Email)
	fill(&c.Company, other.Company)
	fill(&c.Role, other.Role)

	tags := NormalizeTags(append(append([]string{}, c.Tags...), other.Tags...))
	if len(tags) != len(c.Tags) {
		c.Tags = tags
		changed = true
	}
	return changed
}

// Address formats the contact as an RFC 5322 address.
func (c Contact) Address() string {
	if c.Email == "" {
		return ""
	}
	return (&mail.Address{Name: c.Name, Address: c.Email}).String()
}

// Validate checks the name and, when present, the email address.
func (c Contact) Validate() error {
	if c.Name == "" {
		return clierr.New(clierr.InvalidInput, "contact name is required")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return clierr.Newf(clierr.InvalidInput, "invalid email %q: %v", c.Email, err).
				WithDetails(map[string]any{"email": c.Email})
		}
	}
	return nil
}

// Directory is the contents of contacts.yml.
type Directory struct {
	Contacts []Contact `yaml:"contacts" json:"contacts"`
}

// Add validates c and appends it.
func (d *Directory) Add(c Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Tags = NormalizeTags(c.Tags)
	d.Contacts = append(d.Contacts, c)
	return nil
}

// Find resolves ref to a contact: a full ID, an unambiguous ID prefix, or
// an exact name ignoring case.
func (d *Directory) Find(ref string) (*Contact, error) {
	i, err := d.index(ref)
	if err != nil {
		return nil, err
	}
	return &d.Contacts[i], nil
}

// Remove deletes the contact ref resolves to and returns it.
func (d *Directory) Remove(ref string) (Contact, error) {
	i, err := d.index(ref)
	if err != nil {
		return Contact{}, err
	}
	c := d.Contacts[i]
	d.Contacts = append(d.Contacts[:i], d.Contacts[i+1:]...)
	return c, nil
}

func (d *Directory) index(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		for i, c := range d.Contacts {
			if c.ID == id {
				return i, nil
			}
		}
	}

	var matches []int
	if len(ref) >= minRefLength {
		lower := strings.ToLower(ref)
		for i, c := range d.Contacts {
			if strings.HasPrefix(c.ID.String(), lower) {
				matches = append(matches, i)
			}
		}
	}
	if len(matches) == 0 {
		for i, c := range d.Contacts {
			if strings.EqualFold(c.Name, ref) {
				matches = append(matches, i)
			}
		}
	}

	switch len(matches) {
	case 0:
		return -1, clierr.Newf(clierr.ContactNotFound, "contact not found: %s", ref).
			WithDetails(map[string]any{"ref": ref})
	case 1:
		return matches[0], nil
	default:
		return -1, clierr.Newf(clierr.InvalidInput, "contact reference %q is ambiguous (%d matches)", ref, len(matches)).
			WithDetails(map[string]any{"ref": ref, "matches": len(matches)})
	}
}

// WithAnyTag returns contacts carrying at least one of tags, in directory
// order. No tags means no contacts.
func (d *Directory) WithAnyTag(tags ...string) []Contact {
	var out []Contact
	for _, c := range d.Contacts {
		for _, t := range tags {
			if c.HasTag(t) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Tags returns every distinct tag, sorted case-insensitively.
func (d *Directory) Tags() []string {
	var all []string
	for _, c := range d.Contacts {
		all = append(all, c.Tags...)
	}
	tags := NormalizeTags(all)
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})
	return tags
}

// NormalizeTags trims tags, drops empty ones and removes case-insensitive
// duplicates, keeping the first spelling.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// String renders a short human label.
func (c Contact) String() string {
	if c.Email == "" {
		return c.Name
	}
	return fmt.Sprintf("%s <%s>", c.Name, c.Email)
}
