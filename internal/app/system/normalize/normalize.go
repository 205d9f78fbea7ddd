// Package normalize trims and canonicalizes user input before it is stored
// or used in a query.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs to one space.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// QueryParam trims a raw query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

var (
	nonSlug  = regexp.MustCompile(`[^a-z0-9\s_-]+`)
	slugSeps = regexp.MustCompile(`[\s_-]+`)
)

// Slug turns a display name into a url component: accents are stripped,
// anything other than letters, digits, spaces, underscores and hyphens is
// dropped, and separator runs become a single hyphen.
//
//	"Web Development" -> "web-development"
//	"Élan  & Co."     -> "elan-co"
func Slug(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.ToLower(b.String())
	out = nonSlug.ReplaceAllString(out, "")
	out = slugSeps.ReplaceAllString(strings.TrimSpace(out), "-")
	return strings.Trim(out, "-")
}

// Statuses parses a comma separated status selection ("member,pending"),
// trimming and lowercasing each element and dropping empties.
func Statuses(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
