package risk

import "strings"

const namePunctuation = ".,/#!$%^&*;:{}=-_`~()"

// normalizeName lowercases, strips punctuation, and collapses whitespace.
func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if strings.ContainsRune(namePunctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CompareNames reports whether two personal names plausibly refer to the
// same person. Exact match after normalization counts; so does an equal
// surname with a matching first initial ("John Smith" vs "J Smith").
func CompareNames(a, b string) bool {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	pa, pb := strings.Split(na, " "), strings.Split(nb, " ")
	if len(pa) < 2 || len(pb) < 2 {
		return false
	}
	if pa[len(pa)-1] != pb[len(pb)-1] {
		return false
	}
	return pa[0][0] == pb[0][0]
}
