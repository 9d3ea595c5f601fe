// Package slug derives URL-safe identifiers from article titles. The slug of
// the translated title doubles as the dedup key against the content API, so
// the transform has to stay deterministic.
package slug

import (
	"regexp"
	"strings"
)

// Turkish letters fold to their unaccented base before the ASCII filter runs.
var turkishFold = strings.NewReplacer(
	"ş", "s", "ğ", "g", "ü", "u", "ö", "o", "ç", "c", "ı", "i",
	"İ", "i", "Ş", "s", "Ğ", "g", "Ü", "u", "Ö", "o", "Ç", "c",
)

var (
	invalidRe    = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	hyphenRunRe  = regexp.MustCompile(`-+`)
)

// Make converts arbitrary text to a lowercase ASCII identifier. An empty
// result means the caller should drop the item rather than publish an
// ambiguous identifier.
func Make(text string) string {
	text = strings.ToLower(text)
	text = turkishFold.Replace(text)
	text = invalidRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, "-")
	text = hyphenRunRe.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}
