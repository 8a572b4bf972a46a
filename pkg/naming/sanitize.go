// Package naming turns source album titles and captions into portable path
// segments and keeps them unique within a scope.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeFolder maps a container name onto a folder-safe name. Letters,
// digits, commas, spaces and hyphens are kept, ':' becomes '.', everything
// else becomes '_'.
func SanitizeFolder(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range norm.NFC.String(name) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == ',', r == ' ', r == '-':
			b.WriteRune(r)
		case r == ':':
			b.WriteByte('.')
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// SanitizeFilename maps a caption onto a file-safe base name. Letters, digits
// and whitespace are kept, ':' becomes '.', '/' and '-' become '-', and any
// other rune becomes a space. The input is composed first so decomposed
// accents stay attached to their letter.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range norm.NFC.String(name) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r), unicode.IsMark(r):
			b.WriteRune(r)
		case r == ':':
			b.WriteByte('.')
		case r == '/', r == '-':
			b.WriteByte('-')
		default:
			b.WriteByte(' ')
		}
	}
	return norm.NFC.String(b.String())
}
