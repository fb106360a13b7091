package model

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpace = regexp.MustCompile(`\s+`)
)

// Slugify derives the URL slug of a review title: lowercased, everything
// except ASCII letters, digits, whitespace and dashes removed, trimmed, and
// whitespace runs replaced by a single dash. Unicode spaces such as NBSP
// count as whitespace. Slugify(Slugify(s)) == Slugify(s).
func Slugify(title string) string {
	s := strings.Map(asciiSpace, strings.ToLower(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return slugSpace.ReplaceAllString(s, "-")
}

// asciiSpace folds every Unicode space, and the BOM, to a plain space so the
// regexps above treat it as a word break.
func asciiSpace(r rune) rune {
	if unicode.IsSpace(r) || r == '\uFEFF' {
		return ' '
	}
	return r
}
