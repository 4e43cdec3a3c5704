package channel

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// Truncate shortens text to at most limit runes. It prefers to cut at the last
// line break that fits so ranked lists lose whole lines.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	if limit <= len(ellipsis) {
		return string([]rune(text)[:limit])
	}
	runes := []rune(text)[:limit-len(ellipsis)]
	cut := string(runes)
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		return cut[:idx] + "\n" + ellipsis
	}
	return cut + ellipsis
}

// SummarizeText returns a truncated preview of the text, limited to 120
// characters, for log lines.
func SummarizeText(text string) string {
	value := strings.TrimSpace(text)
	if value == "" {
		return ""
	}
	const limit = 120
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + ellipsis
}
