// Package styledtext renders plain ASCII text with Unicode mathematical
// alphanumeric glyphs, which micro-blogging platforms display as styled
// text inside otherwise unformatted posts.
package styledtext

import "strings"

// Offsets into the Mathematical Alphanumeric Symbols block for the bold
// alphabet. Each run is contiguous, so a plain rune offset suffices.
const (
	boldUpperA = 0x1D400 // 𝐀
	boldLowerA = 0x1D41A // 𝐚
	boldZero   = 0x1D7CE // 𝟎
)

// Bold replaces ASCII letters and digits with their mathematical bold
// equivalents. All other runes pass through unchanged.
func Bold(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 4)
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(boldUpperA + (r - 'A'))
		case r >= 'a' && r <= 'z':
			b.WriteRune(boldLowerA + (r - 'a'))
		case r >= '0' && r <= '9':
			b.WriteRune(boldZero + (r - '0'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
