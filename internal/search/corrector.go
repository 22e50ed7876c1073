package search

import "strings"

// spellingCorrections maps each canonical term to its known misspelling
// variants. Matching is plain substring containment on the normalized query;
// every occurrence of a variant is replaced with the canonical term. The
// tables are read-only after init.
var spellingCorrections = []struct {
	canonical string
	variants  []string
}{
	// Product types
	{"earbuds", []string{"earbuds", "ear buds", "earbud", "earpods", "earpod", "ear pods", "ear pod", "erbuds", "earbusd", "earbudd", "erbods", "eerbods", "airbuds", "earbufs"}},
	{"headphones", []string{"headphones", "headphone", "headfones", "hedphones", "hadphones", "head phones", "headfons", "hedphons", "headfone", "headpohnes"}},
	{"wireless", []string{"wireless", "wireles", "wirelss", "wirless", "wire less", "wirles", "wirelees"}},
	{"bluetooth", []string{"bluetooth", "blutooth", "bluetoth", "bluethooth", "blue tooth", "blutoth", "bluetooh", "bluethoth"}},
	{"neckband", []string{"neckband", "neckbands", "neck band", "neckbnd", "neckbnad", "nekband", "neckbad"}},
	{"wired", []string{"wired", "wierd", "wire", "wird", "wir"}},

	// Brands
	{"samsung", []string{"samsung", "samsong", "samung", "smasung", "sumsung", "samsng", "samsuong", "samsun", "samasung"}},
	{"sony", []string{"sony", "soni", "sonny", "soony", "soney", "sany", "sonu"}},
	{"apple", []string{"apple", "aple", "appl", "appel", "aplle", "applee"}},
	{"airpods", []string{"airpods", "airpod", "arpods", "air pods", "earpods", "erpods", "airposd"}},
	{"jbl", []string{"jbl", "jebl", "jbll"}},
	{"boat", []string{"boat", "boaat", "bot", "boad"}},
	{"oneplus", []string{"oneplus", "one plus", "onepluse", "1plus", "oneplas"}},
	{"realme", []string{"realme", "real me", "relme", "reelme", "realeme"}},
	{"noise", []string{"noise", "nois", "noice", "noize"}},
	{"mi", []string{"mi", "xiaomi", "redmi", "xiomi", "shiaomi"}},
}

// likelyMistakes is a fast pre-check list: only queries containing one of
// these trigger the AI correction call.
var likelyMistakes = []string{
	"erbuds", "earbusd", "erbods", "eerbods",
	"headfones", "hedphones", "headfons", "hedphons",
	"blutooth", "bluetoth", "blutoth", "bluethoth",
	"wireles", "wirelss", "wirles", "wirelees",
	"samsong", "samung", "sumsung", "samsng",
	"soni", "sonny", "soney", "soony",
	"aple", "appl", "appel", "aplle",
	"neckbnad", "neckbnd", "nekband", "neckbad",
}

// Normalize trims the query, collapses internal whitespace and lowercases it.
func Normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// CorrectSpelling applies the static correction table to a normalized query.
// It returns the corrected query and whether any replacement fired.
func CorrectSpelling(normalized string) (string, bool) {
	corrected := normalized
	applied := false
	for _, rule := range spellingCorrections {
		for _, variant := range rule.variants {
			if variant == rule.canonical {
				continue
			}
			if strings.Contains(normalized, variant) {
				corrected = strings.ReplaceAll(corrected, variant, rule.canonical)
				applied = true
			}
		}
	}
	return corrected, applied
}

// HasLikelyMistakes reports whether a query contains a known-ambiguous
// misspelling that the static table may not have fixed.
func HasLikelyMistakes(query string) bool {
	lower := strings.ToLower(query)
	for _, mistake := range likelyMistakes {
		if strings.Contains(lower, mistake) {
			return true
		}
	}
	return false
}
