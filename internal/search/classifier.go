package search

import "strings"

// brandKeywords maps a brand tag to the substrings that trigger it. Declared
// as an ordered slice because detection order drives the brand-priority sort.
// Trigger lists are curated to avoid overlap traps ("mi" never appears as a
// standalone substring of other brand names in the catalog vocabulary).
var brandKeywords = []struct {
	tag      string
	triggers []string
}{
	{"samsung", []string{"samsung", "galaxy"}},
	{"sony", []string{"sony", "wf-", "linkbuds"}},
	{"apple", []string{"apple", "airpods", "earpods"}},
	{"jbl", []string{"jbl"}},
	{"boat", []string{"boat"}},
	{"oneplus", []string{"oneplus", "one plus", "nord"}},
	{"realme", []string{"realme", "real me"}},
	{"noise", []string{"noise"}},
	{"ptron", []string{"ptron", "p-tron"}},
	{"mi", []string{"mi", "xiaomi", "redmi"}},
}

// categoryKeywords maps a category tag to its trigger substrings.
var categoryKeywords = []struct {
	tag      string
	triggers []string
}{
	{"earbuds", []string{"earbuds", "ear buds", "earbud", "earpods", "ear pods", "truly wireless", "tws", "bluetooth earbuds"}},
	{"headphones", []string{"headphones", "headphone", "over ear", "on ear", "wireless headphones"}},
	{"neckbands", []string{"neckband", "neck band", "neckbands", "neck bands"}},
	{"earphones", []string{"wired", "wired earphones", "wired earphone", "earphone", "earphones", "earphones with wire", "aux"}},
}

// Classify scans the corrected query for brand and category trigger
// substrings. A tag is detected when any of its triggers appears; a query may
// match several brands and several categories at once.
func Classify(corrected string) (brands, categories []string) {
	for _, b := range brandKeywords {
		if containsAny(corrected, b.triggers) {
			brands = append(brands, b.tag)
		}
	}
	for _, c := range categoryKeywords {
		if containsAny(corrected, c.triggers) {
			categories = append(categories, c.tag)
		}
	}
	return brands, categories
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
