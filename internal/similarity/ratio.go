// Package similarity scores how close two gene symbols are on a 0-100
// scale, for correcting typos and cross-species spelling drift.
package similarity

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// Ratio returns the normalized indel similarity between a and b as a
// percentage. Identical strings score 100, strings with nothing in
// common score 0. With substitutions costed as delete+insert, the
// Wagner-Fischer distance counts the characters outside the longest
// common subsequence, so the score is (1 - d/(len(a)+len(b))) * 100.
func Ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	d := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return (1 - float64(d)/float64(len(a)+len(b))) * 100
}

// Match holds one vocabulary symbol that scored at or above a cutoff.
type Match struct {
	Symbol string
	Score  float64
}

// Extract scores query against every symbol in vocab and returns the
// matches scoring at least cutoff, best first, capped at limit. Scoring
// ignores case so TRP53 finds Trp53, but matches keep the vocabulary
// casing. Ties are broken by symbol so the result is deterministic. A
// limit <= 0 means no cap.
func Extract(query string, vocab []string, cutoff float64, limit int) []Match {
	q := strings.ToUpper(query)
	var hits []Match
	for _, sym := range vocab {
		if score := Ratio(q, strings.ToUpper(sym)); score >= cutoff {
			hits = append(hits, Match{Symbol: sym, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Symbol < hits[j].Symbol
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
