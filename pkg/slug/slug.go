package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into base letter plus combining mark.
var special = strings.NewReplacer(
	"ı", "i", "ß", "ss", "ø", "o", "æ", "ae", "œ", "oe", "ł", "l", "đ", "d", "þ", "th",
)

// Generate turns a place name into a URL-friendly slug by stripping
// diacritics and joining alphanumeric runs with hyphens.
//
//	"Café Müller"        -> "cafe-muller"
//	"Łódź Fabryczna"     -> "lodz-fabryczna"
//	"  Hello   World! "  -> "hello-world"
func Generate(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		folded = strings.ToLower(name)
	}
	folded = special.Replace(folded)
	return strings.Trim(nonAlnum.ReplaceAllString(folded, "-"), "-")
}
