package core

import "strings"

// collectionCatalog lists the reference collections in display order.
var collectionCatalog = []CollectionInfo{
	{Code: "H", Name: "Hallmark", Description: "Hallmark gene sets"},
	{Code: "C1", Name: "Positional", Description: "Positional gene sets"},
	{Code: "C2", Name: "Curated", Description: "Curated gene sets (CP, CGP)"},
	{Code: "C3", Name: "Motif", Description: "Regulatory target gene sets"},
	{Code: "C4", Name: "Computational", Description: "Computational gene sets"},
	{Code: "C5", Name: "GO", Description: "Gene Ontology gene sets"},
	{Code: "C6", Name: "Oncogenic", Description: "Oncogenic signatures"},
	{Code: "C7", Name: "Immunologic", Description: "Immunologic signatures"},
	{Code: "C8", Name: "Cell Type", Description: "Cell type signatures"},
}

// Collections returns the known collection catalog. The caller owns the
// returned slice.
func Collections() []CollectionInfo {
	out := make([]CollectionInfo, len(collectionCatalog))
	copy(out, collectionCatalog)
	return out
}

// CollectionByCode looks up one collection, case-insensitively.
func CollectionByCode(code string) (CollectionInfo, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range collectionCatalog {
		if c.Code == code {
			return c, true
		}
	}
	return CollectionInfo{}, false
}

// normalizeCollections maps a request's collection filter to canonical
// codes. Nil, empty, or any "all" entry means unrestricted, reported as
// nil.
func normalizeCollections(collections []string) []string {
	if len(collections) == 0 {
		return nil
	}
	out := make([]string, 0, len(collections))
	for _, c := range collections {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if strings.EqualFold(c, "all") {
			return nil
		}
		out = append(out, strings.ToUpper(c))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
