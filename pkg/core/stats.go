package core

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// EnrichmentStats computes the hypergeometric tail p-value and the 2x2
// contingency odds ratio for one candidate gene set.
//
// The p-value is P[X >= overlap] where X counts hits when drawing
// querySize genes from a universe of universeSize genes containing
// geneSetSize members of the set. Lower is more significant. The value is
// always within [0, 1]; degenerate inputs fall back to 1.0 rather than
// failing.
//
// A nil odds ratio means the contingency table had a non-positive cell
// and no meaningful ratio exists. When the set or the query covers the
// whole universe the ratio collapses to 1.0.
func EnrichmentStats(overlap, geneSetSize, querySize, universeSize int) (float64, *float64) {
	p := hypergeomTail(overlap, universeSize, geneSetSize, querySize)
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		p = 1.0
	}
	if p > 1 {
		// tail sums can overshoot 1 by an ulp
		p = 1.0
	}
	return p, oddsRatio(overlap, geneSetSize, querySize, universeSize)
}

// hypergeomTail returns P[X >= k] for X ~ Hypergeometric(universe,
// setSize, sample), summing the pmf in log space to stay stable for
// genome-scale counts. Terms outside the support are skipped rather than
// evaluated.
func hypergeomTail(k, universe, setSize, sample int) float64 {
	if universe <= 0 || setSize < 0 || sample < 0 {
		return 1.0
	}
	if setSize > universe {
		setSize = universe
	}
	if sample > universe {
		sample = universe
	}
	if k <= 0 {
		return 1.0
	}

	hi := sample
	if setSize < hi {
		hi = setSize
	}
	if k > hi {
		return 0.0
	}
	lo := k
	if floor := sample + setSize - universe; floor > lo {
		lo = floor
	}

	logDenom := combin.LogGeneralizedBinomial(float64(universe), float64(sample))
	var tail float64
	for i := lo; i <= hi; i++ {
		logP := combin.LogGeneralizedBinomial(float64(setSize), float64(i)) +
			combin.LogGeneralizedBinomial(float64(universe-setSize), float64(sample-i)) -
			logDenom
		tail += math.Exp(logP)
	}
	return tail
}

// oddsRatio computes (a*d)/(b*c) for the table a=overlap, b=query only,
// c=set only, d=neither.
func oddsRatio(overlap, geneSetSize, querySize, universeSize int) *float64 {
	if geneSetSize >= universeSize || querySize >= universeSize {
		one := 1.0
		return &one
	}

	a := float64(overlap)
	b := float64(querySize - overlap)
	c := float64(geneSetSize - overlap)
	d := float64(universeSize-geneSetSize) - b
	if b <= 0 || c <= 0 || d <= 0 {
		return nil
	}

	or := (a * d) / (b * c)
	if math.IsNaN(or) || math.IsInf(or, 0) {
		return nil
	}
	return &or
}
