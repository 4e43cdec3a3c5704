package recall

import "testing"

func TestToTitleCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"histamine", "Histamine"},
		{"listeria monocytogenes", "Listeria Monocytogenes"},
		{"Listeria Monocytogenes", "Listeria Monocytogenes"},
		{"listeria MONOCYTOGENES", "Listeria Monocytogenes"},
		{"salmonella spp. contamination", "Salmonella Spp. Contamination"},
		{"product 123 recall", "Product 123 Recall"},
		{"  multiple   spaces  ", "  Multiple   Spaces  "},
		{"glass\nfragments", "Glass\nfragments"},
		{"a", "A"},
		{"éclair crème", "Éclair Crème"},
		{"", ""},
		{"bad\xffbyte milk", "Bad\xffbyte Milk"},
		{"\xfe\xffMOLD", "\xfe\xffmold"},
		{"ÇA VA", "Ça Va"},
	}
	for _, tt := range tests {
		if got := ToTitleCase(tt.input); got != tt.want {
			t.Errorf("ToTitleCase(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
