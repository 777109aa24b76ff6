package sanitizer

import (
	"regexp"
	"strings"
)

var (
	reRegexSpecial = regexp.MustCompile(`[.*+?^$()[\]{}|\\]`)
	likeEscaper    = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

// EscapeRegex escapes regex metacharacters so user input can be embedded in a
// MongoDB $regex as a literal. This also prevents ReDoS patterns.
func EscapeRegex(s string) string {
	return reRegexSpecial.ReplaceAllStringFunc(s, func(match string) string {
		return `\` + match
	})
}

// EscapeLike escapes LIKE wildcards using backslash as the escape character.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
