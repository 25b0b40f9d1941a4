package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// MaxLength is the longest slug Generate produces.
const MaxLength = 120

var transliterator = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"à", "a", "á", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
	"è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i",
	"ò", "o", "ó", "o", "ô", "o", "õ", "o",
	"ù", "u", "ú", "u", "û", "u",
	"ñ", "n", "ß", "ss", "&", " and ",
)

// Generate derives a URL-safe slug from a display name: lowercase ASCII
// letters and digits separated by single hyphens.
//
//   - "Kadın Giyim" → "kadin-giyim"
//   - "Phones & Tablets" → "phones-and-tablets"
//   - "  --Hello   World!-- " → "hello-world"
func Generate(name string) string {
	s := transliterator.Replace(strings.ToLower(strings.TrimSpace(name)))
	s = strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")

	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// Valid reports whether s is already in canonical slug form.
func Valid(s string) bool {
	return validSlug.MatchString(s)
}

// Equal compares slugs case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}
