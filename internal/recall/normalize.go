package recall

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToTitleCase lowercases text and capitalizes the first character of every
// space-delimited token. Only the single space character separates tokens, so
// runs of spaces, tabs and newlines pass through untouched. Bytes that are not
// valid UTF-8 are copied verbatim. Empty input is returned as is.
func ToTitleCase(text string) string {
	if text == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	start := true
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			b.WriteByte(text[i])
			start = false
		case r == ' ':
			b.WriteByte(' ')
			start = true
		case start:
			b.WriteRune(unicode.ToUpper(r))
			start = false
		default:
			b.WriteRune(unicode.ToLower(r))
		}
		i += size
	}
	return b.String()
}
