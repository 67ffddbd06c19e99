package styledtext

import "testing"

func TestBold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"upper", "ABZ", "\U0001D400\U0001D401\U0001D419"},
		{"lower", "abz", "\U0001D41A\U0001D41B\U0001D433"},
		{"digits", "09", "\U0001D7CE\U0001D7D7"},
		{"mixed", "Go 1", "\U0001D406\U0001D428 \U0001D7CF"},
		{"punctuation untouched", "a-b!", "\U0001D41A-\U0001D41B!"},
		{"non ascii untouched", "café", "\U0001D41C\U0001D41A\U0001D41Fé"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Bold(tt.in); got != tt.want {
				t.Fatalf("Bold(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
