package core

import "unicode"

// speciesMajority is the fraction of tokens that must share one casing
// convention before the classifier commits to a species.
const speciesMajority = 0.6

// DetectSpecies infers a species from gene symbol casing conventions:
// human symbols are fully upper-case (TP53, BRCA1) while mouse symbols
// are capitalized with a lower-case tail (Trp53, Brca1). Single-character
// tokens are ambiguous and never vote. When neither convention clears the
// majority threshold, or the list is empty, both species are searched.
//
// The heuristic only works on tokens that still carry the casing the user
// typed; canonicalized symbols are all upper-case and will always look
// human.
func DetectSpecies(genes []string) Species {
	if len(genes) == 0 {
		return SpeciesBoth
	}

	var upper, capitalized int
	for _, gene := range genes {
		if len(gene) <= 1 {
			continue
		}
		switch {
		case isUpperSymbol(gene):
			upper++
		case isCapitalizedSymbol(gene):
			capitalized++
		}
	}

	total := float64(len(genes))
	switch {
	case float64(upper) > total*speciesMajority:
		return SpeciesHuman
	case float64(capitalized) > total*speciesMajority:
		return SpeciesMouse
	}
	return SpeciesBoth
}

// isUpperSymbol reports whether s contains at least one upper-case letter
// and no lower-case letters. Digits do not count either way, so TP53
// qualifies and T999 does not disqualify itself.
func isUpperSymbol(s string) bool {
	hasUpper := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

// isCapitalizedSymbol reports whether s starts with an upper-case letter
// and contains at least one lower-case letter afterwards, the mouse
// convention.
func isCapitalizedSymbol(s string) bool {
	first := true
	hasLower := false
	for _, r := range s {
		if first {
			if !unicode.IsUpper(r) {
				return false
			}
			first = false
			continue
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return hasLower
}
