// Package sanitize cleans user-authored forum content before it is submitted.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer is safe for concurrent use.
type Sanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

func New() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "h3", "h4",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("https", "http", "mailto")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &Sanitizer{
		rich:  p,
		plain: bluemonday.StrictPolicy(),
	}
}

// Content keeps a small set of formatting tags for post bodies and announcements.
func (s *Sanitizer) Content(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}

// Text strips all markup; used for titles, comments and tag names.
func (s *Sanitizer) Text(raw string) string {
	return strings.TrimSpace(s.plain.Sanitize(raw))
}
