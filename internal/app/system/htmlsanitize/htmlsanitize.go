// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Group descriptions may carry limited rich formatting, so Sanitize keeps a
// conservative UGC subset (formatting, lists, links, tables) and strips
// everything executable. Profile bios and names are plain text; StripTags
// removes all markup outright.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// richPolicy allows user-generated formatting but nothing executable.
var richPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowTables()
	p.AllowAttrs("class").OnElements("table", "td", "th")
	p.AllowAttrs("style").OnElements("table", "tr", "td", "th")
	return p
}()

// strictPolicy removes all HTML, leaving only text content.
var strictPolicy = bluemonday.StrictPolicy()

// Sanitize cleans rich text, keeping safe formatting and dropping scripts,
// event handlers, iframes, forms, and javascript: or data: URLs.
func Sanitize(s string) string {
	return richPolicy.Sanitize(s)
}

// StripTags removes all markup from a plain-text field.
func StripTags(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
