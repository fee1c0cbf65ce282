package mail

import (
	"regexp"
	"sort"
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/date"
)

// Built-in placeholder names.
const (
	KeyProject = "proyecto"
	KeyDate    = "fecha"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Values holds placeholder substitutions keyed case-insensitively.
type Values map[string]string

// NewValues seeds the built-in placeholders.
func NewValues(project string, today date.Date) Values {
	v := Values{}
	v.Set(KeyProject, project)
	v.Set(KeyDate, today.String())
	return v
}

func key(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Set stores a value under name.
func (v Values) Set(name, value string) {
	v[key(name)] = value
}

// Get looks up name ignoring case.
func (v Values) Get(name string) (string, bool) {
	val, ok := v[key(name)]
	return val, ok
}

// AddRecord exposes every column of a row as a placeholder. Built-in
// names are not overridden.
func (v Values) AddRecord(rec map[string]string) {
	for h, val := range rec {
		k := key(h)
		if k == "" || k == KeyProject || k == KeyDate {
			continue
		}
		v[k] = val
	}
}

// Substitute replaces every known {{placeholder}}. Unknown placeholders
// stay verbatim and are returned once each under their lookup key, sorted.
func Substitute(text string, v Values) (string, []string) {
	unknown := map[string]bool{}
	out := placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if val, ok := v.Get(name); ok {
			return val
		}
		unknown[key(name)] = true
		return m
	})
	return out, sortedKeys(unknown)
}

// Placeholders lists the distinct placeholder keys used in text.
func Placeholders(text string) []string {
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		seen[key(m[1])] = true
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
