package mutscore

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeSequence performs Unicode normalization, strips whitespace and
// control characters and upper-cases residue letters.
func NormalizeSequence(seq string) string {
	normed := norm.NFKC.String(seq)
	normed = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, normed)
	return normed
}

// NormalizeCode trims a mutation code, folds full-width characters and
// upper-cases it to match NormalizeSequence.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(strings.TrimPrefix(code, "\ufeff"))))
}

// isASCII reports whether s holds only single-byte characters.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
