// Package recall recognizes recall announcements, extracts their reason, and
// renders ranked reason tallies.
package recall

import (
	"errors"
	"regexp"
	"strings"
)

// TriggerPhrase marks a message as a recall announcement.
const TriggerPhrase = "recalled due to"

// ErrNoRecallReasonFound is returned when a message carries no usable reason.
var ErrNoRecallReasonFound = errors.New("no recall reason found in message")

var (
	recallPattern = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(TriggerPhrase))
	// (?s) keeps embedded newlines inside the captured reason.
	reasonPattern = regexp.MustCompile(`(?is)` + regexp.QuoteMeta(TriggerPhrase) + `(.*)`)
)

// IsRecallMessage reports whether text contains the trigger phrase, ignoring case.
// The match is a plain substring match without word boundaries.
func IsRecallMessage(text string) bool {
	if text == "" {
		return false
	}
	return recallPattern.MatchString(text)
}

// ParseRecallReason returns everything after the first occurrence of the
// trigger phrase with surrounding whitespace removed. Later occurrences of the
// phrase are kept verbatim as part of the reason.
func ParseRecallReason(text string) (string, error) {
	if !IsRecallMessage(text) {
		return "", ErrNoRecallReasonFound
	}
	match := reasonPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return "", ErrNoRecallReasonFound
	}
	reason := strings.TrimSpace(match[1])
	if reason == "" {
		return "", ErrNoRecallReasonFound
	}
	return reason, nil
}
