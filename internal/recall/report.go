package recall

import (
	"strconv"
	"strings"
)

const (
	reportHeader = "Top recall reasons:"
	reportEmpty  = "No recalls recorded yet."
)

// Entry is one ranked reason and the number of distinct announcements behind it.
type Entry struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// FormatStats renders entries in the order given, one numbered line each.
func FormatStats(entries []Entry) string {
	if len(entries) == 0 {
		return reportHeader + "\n" + reportEmpty
	}
	var b strings.Builder
	b.WriteString(reportHeader)
	for i, entry := range entries {
		b.WriteByte('\n')
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(entry.Reason)
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(entry.Count))
		b.WriteByte(')')
	}
	return b.String()
}
