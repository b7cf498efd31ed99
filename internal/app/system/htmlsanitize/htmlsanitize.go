// Package htmlsanitize cleans user-generated HTML before storage.
//
// Post content may contain rich text from clients; everything goes
// through a bluemonday UGC policy extended with table support so that
// stored content is safe to render anywhere without re-checking.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowTables()
	p.AllowAttrs("class").OnElements("table", "th", "td")
	return p
}

// Sanitize strips unsafe markup, returning clean HTML.
func Sanitize(input string) string {
	if input == "" {
		return ""
	}
	return policy.Sanitize(input)
}

// IsPlainText reports whether the input contains no markup at all,
// i.e. sanitizing changes nothing and it has no angle brackets.
func IsPlainText(input string) bool {
	return !strings.ContainsAny(input, "<>")
}
