package recall

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRecallMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"plain", "Smoked salmon recalled due to Listeria monocytogenes", true},
		{"upper case", "PRODUCT RECALLED DUE TO CONTAMINATION", true},
		{"mixed case", "Cheese Recalled Due To milk", true},
		{"no boundary", "Gum recalled due tooth decay", true},
		{"phrase only", "recalled due to", true},
		{"unrelated", "The weather is nice today", false},
		{"partial", "recalled because of salt", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRecallMessage(tt.text))
		})
	}
}

func TestParseRecallReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"single word", "Tuna recalled due to Histamine", "Histamine"},
		{"several words", "Cookies recalled due to Undeclared Milk Allergen", "Undeclared Milk Allergen"},
		{"special characters", "Eggs recalled due to Salmonella spp. contamination", "Salmonella spp. contamination"},
		{"case insensitive", "Bread RECALLED DUE TO contamination", "contamination"},
		{"trimmed", "Salad recalled due to   Listeria  \n", "Listeria"},
		{"internal newline kept", "Soup recalled due to glass\nfragments", "glass\nfragments"},
		{"internal spaces kept", "Soup recalled due to glass    fragments", "glass    fragments"},
		{"first occurrence only", "X recalled due to A, but also recalled due to B", "A, but also recalled due to B"},
		{"no boundary", "Gum recalled due tooth decay", "oth decay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRecallReason(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecallReasonErrors(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"",
		"Nothing to see here",
		"Product recalled due to",
		"Product recalled due to   \n\t ",
	} {
		_, err := ParseRecallReason(text)
		if !errors.Is(err, ErrNoRecallReasonFound) {
			t.Fatalf("ParseRecallReason(%q) error = %v, want ErrNoRecallReasonFound", text, err)
		}
	}
}

func TestClassifierAndExtractorAgree(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"hello",
		"recalled due",
		"due to recalled",
		"Recalled due to x",
		"a recalled due to   b  ",
	} {
		reason, err := ParseRecallReason(text)
		if !IsRecallMessage(text) {
			assert.ErrorIs(t, err, ErrNoRecallReasonFound, text)
			continue
		}
		require.NoError(t, err, text)
		assert.NotEmpty(t, reason)
		assert.Equal(t, strings.TrimSpace(reason), reason)
	}
}
