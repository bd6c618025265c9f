package core

import (
	"math"
	"sort"
)

// BenjaminiHochberg applies the Benjamini-Hochberg false discovery rate
// correction to a batch of p-values and returns the adjusted values in
// the same order as the input. The input slice is not modified.
//
// Every adjusted value is clamped to [raw, 1], and when the raw values
// are viewed in ascending order the adjusted values never decrease. An
// empty input is returned as-is.
func BenjaminiHochberg(pvalues []float64) []float64 {
	m := len(pvalues)
	if m == 0 {
		return pvalues
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pvalues[order[a]] < pvalues[order[b]]
	})

	// Walk ranks from largest to smallest carrying the running minimum of
	// p * m / rank, which enforces monotonicity.
	adjusted := make([]float64, m)
	running := math.Inf(1)
	for r := m - 1; r >= 0; r-- {
		idx := order[r]
		val := pvalues[idx] * float64(m) / float64(r+1)
		if val < running {
			running = val
		}
		adj := running
		if adj > 1 {
			adj = 1
		}
		if raw := pvalues[idx]; adj < raw {
			// float rounding of p*m/rank must never report an adjusted
			// value below the raw one
			adj = raw
		}
		adjusted[idx] = adj
	}
	return adjusted
}
