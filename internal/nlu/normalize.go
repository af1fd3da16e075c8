package nlu

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds width and compatibility variants (NFKC) and lowercases,
// so "！ＺＵＮＤＡ" and "!zunda" look the same to the matcher.
func Normalize(raw string) string {
	return strings.ToLower(norm.NFKC.String(raw))
}
