package players

import (
	"regexp"
	"strings"
)

var spaceRun = regexp.MustCompile(`\s+`)

// NormalizeName canonicalizes a player name scraped from the ESL website:
// NBSP and zero-width characters become plain spaces, inner whitespace runs
// collapse to one space, surrounding whitespace is trimmed.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(name, "\u00a0", " ")
	name = strings.ReplaceAll(name, "\u200B", "")
	name = spaceRun.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
