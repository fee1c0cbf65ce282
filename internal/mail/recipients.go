package mail

import (
	"strings"

	"github.com/twiced-technology-gmbh/plantrack/internal/contact"
)

// Recipients is the outcome of resolving a template's tag lists.
type Recipients struct {
	To           []string `json:"to"`
	Cc           []string `json:"cc,omitempty"`
	NoEmail      []string `json:"no_email,omitempty"`
	UnmatchedTag []string `json:"unmatched_tags,omitempty"`
}

// ResolveRecipients substitutes placeholders into the To and Cc tags and
// selects contacts carrying any of them. An address appears once: To wins
// over Cc.
func ResolveRecipients(dir *contact.Directory, to, cc []string, v Values) Recipients {
	var r Recipients
	seen := map[string]bool{}
	noEmail := map[string]bool{}

	collect := func(tags []string) []string {
		resolved := resolveTags(tags, v)
		var addrs []string
		for _, tag := range resolved {
			if len(dir.WithAnyTag(tag)) == 0 {
				r.UnmatchedTag = append(r.UnmatchedTag, tag)
			}
		}
		for _, c := range dir.WithAnyTag(resolved...) {
			if c.Email == "" {
				if !noEmail[c.Name] {
					noEmail[c.Name] = true
					r.NoEmail = append(r.NoEmail, c.Name)
				}
				continue
			}
			addr := strings.ToLower(c.Email)
			if seen[addr] {
				continue
			}
			seen[addr] = true
			addrs = append(addrs, c.Address())
		}
		return addrs
	}

	r.To = collect(to)
	r.Cc = collect(cc)
	return r
}

func resolveTags(tags []string, v Values) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		s, _ := Substitute(t, v)
		out = append(out, s)
	}
	return contact.NormalizeTags(out)
}
