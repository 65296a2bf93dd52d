package domain

import (
	"regexp"
	"strings"
)

var (
	slugStripRe = regexp.MustCompile(`[^\w\s-]`)
	slugSepRe   = regexp.MustCompile(`[\s_-]+`)
)

// Slugify normalizes free text into a URL slug: lowercase, punctuation
// stripped, runs of whitespace/underscores/hyphens collapsed to single
// hyphens. Returns "" if nothing survives.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSepRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
