// Package sanitize cleans user-submitted comment markup.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	commentPolicy = newCommentPolicy()
	strictPolicy  = bluemonday.StrictPolicy()
)

func newCommentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "em", "strong", "ul", "ol", "li", "p", "br")
	p.AllowAttrs("href", "target").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoReferrerOnLinks(true)
	return p
}

// Comment returns text reduced to the allowed HTML subset. ok is false
// when nothing but markup and whitespace remains.
func Comment(text string) (string, bool) {
	cleaned := strings.TrimSpace(commentPolicy.Sanitize(text))
	if IsBlank(cleaned) {
		return "", false
	}
	return cleaned, true
}

// IsBlank reports whether text is empty once every tag is stripped.
func IsBlank(text string) bool {
	plain := html.UnescapeString(strictPolicy.Sanitize(text))
	return strings.TrimSpace(plain) == ""
}
