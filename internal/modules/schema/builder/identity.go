package builder

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

// Derive maps a human-readable label to its machine identifier.
//
// The label is transliterated to ASCII and split into words, then joined in
// camelCase: "Título del Día" becomes "tituloDelDia". Derive is pure and total;
// a blank or symbol-only label derives to "".
func Derive(label string) string {
	words := strings.FieldsFunc(slug.Make(label), func(r rune) bool {
		return r == '-' || r == '_'
	})
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(label))
	b.WriteString(words[0])
	for _, w := range words[1:] {
		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(w[size:])
	}
	return b.String()
}

// IdentifierPolicy decides what a label edit does to an identifier the
// operator typed by hand.
type IdentifierPolicy int

const (
	// OverwriteOnLabelChange recomputes the identifier on every label edit,
	// discarding manual values.
	OverwriteOnLabelChange IdentifierPolicy = iota
	// PreserveManual keeps a manually set identifier until it is cleared.
	PreserveManual
)

func (p IdentifierPolicy) String() string {
	switch p {
	case PreserveManual:
		return "preserve-manual"
	default:
		return "overwrite"
	}
}
