package core

import (
	"regexp"
	"strings"
)

// geneSeparators splits query text on commas, semicolons, and any run of
// whitespace, including tabs and newlines.
var geneSeparators = regexp.MustCompile(`[,;\s]+`)

// ParseGeneQuery splits free query text into canonical gene symbols:
// upper-cased, deduplicated, input order preserved. The result is never
// nil, so it can be serialized as an empty list.
func ParseGeneQuery(query string) []string {
	_, canonical := splitGeneTokens(query)
	return canonical
}

// splitGeneTokens tokenizes query text once, returning both the raw
// tokens as typed (casing intact, for species detection) and their
// canonical forms. The slices are aligned: raw[i] canonicalizes to
// canonical[i]. Duplicates are dropped by canonical form, so "tp53" and
// "TP53" count once.
func splitGeneTokens(query string) (raw, canonical []string) {
	raw = []string{}
	canonical = []string{}
	seen := make(map[string]struct{})
	for _, tok := range geneSeparators.Split(query, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		canon := strings.ToUpper(tok)
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}
		raw = append(raw, tok)
		canonical = append(canonical, canon)
	}
	return raw, canonical
}
