package schedule

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Role is the semantic meaning of a sheet column.
type Role string

// Column roles the resolver needs.
const (
	RoleID           Role = "id"
	RoleDuration     Role = "duration"
	RoleDependency   Role = "dependency"
	RoleExpectedDate Role = "expectedDate"
)

// RequiredRoles lists every role a sheet must expose, in display order.
var RequiredRoles = []Role{RoleID, RoleDuration, RoleDependency, RoleExpectedDate}

var roleMatchers = []struct {
	role Role
	re   *regexp.Regexp
}{
	{RoleID, regexp.MustCompile(`^id$`)},
	{RoleDuration, regexp.MustCompile(`^(duracion|dias)$`)},
	{RoleDependency, regexp.MustCompile(`^(dependencia|dep\.?)$`)},
	{RoleExpectedDate, regexp.MustCompile(`^fecha\s+esperada$`)},
}

var spaceRun = regexp.MustCompile(`\s+`)

// Roles maps each detected role to its column index.
type Roles map[Role]int

// DetectRoles classifies the header. Roles without a matching header are
// absent from the result. When several headers match one role the leftmost
// wins.
func DetectRoles(header []string) Roles {
	roles := make(Roles, len(RequiredRoles))
	for i, h := range header {
		role, ok := RoleOf(h)
		if !ok {
			continue
		}
		if _, seen := roles[role]; !seen {
			roles[role] = i
		}
	}
	return roles
}

// RoleOf returns the role a single header plays, if any.
func RoleOf(header string) (Role, bool) {
	key := normalizeHeader(header)
	for _, m := range roleMatchers {
		if m.re.MatchString(key) {
			return m.role, true
		}
	}
	return "", false
}

// Missing returns the required roles not present, in RequiredRoles order.
func (r Roles) Missing() []Role {
	var missing []Role
	for _, role := range RequiredRoles {
		if _, ok := r[role]; !ok {
			missing = append(missing, role)
		}
	}
	return missing
}

// Found returns the required roles present, in RequiredRoles order.
func (r Roles) Found() []Role {
	var found []Role
	for _, role := range RequiredRoles {
		if _, ok := r[role]; ok {
			found = append(found, role)
		}
	}
	return found
}

// Complete reports whether every required role was detected.
func (r Roles) Complete() bool {
	return len(r.Missing()) == 0
}

// normalizeHeader lower-cases, strips accents and collapses whitespace so
// "Duración" and "FECHA   esperada" compare equal to their plain forms.
func normalizeHeader(h string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, h)
	if err != nil {
		folded = h
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	return spaceRun.ReplaceAllString(folded, " ")
}
