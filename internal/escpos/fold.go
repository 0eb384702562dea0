package escpos

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold strips diacritics from s ("Café Touba" -> "Cafe Touba").
//
// Thermal printer code pages rarely cover French accents; sending them
// raw garbles the receipt. Decompose, drop combining marks, recompose.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
