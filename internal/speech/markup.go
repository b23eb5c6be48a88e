package speech

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripMarkup removes HTML tags and entities from text so feedback
// rendered as rich content can be spoken as plain sentences.
func StripMarkup(text string) string {
	stripped := tagPattern.ReplaceAllString(text, " ")
	stripped = html.UnescapeString(stripped)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(stripped, " "))
}
