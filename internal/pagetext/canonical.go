package pagetext

import "strings"

var canonicalReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	" ", " ",
)

// Canonicalize normalizes line endings and non-breaking spaces so that
// multiline patterns see the same text regardless of which extractor
// produced it.
func Canonicalize(s string) string {
	return canonicalReplacer.Replace(s)
}
