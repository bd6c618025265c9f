package core

import "sort"

// RankCandidates orders scored candidates by descending overlap count,
// breaking ties by ascending p-value, and materializes them as results
// with contiguous 1-based ranks. The sort is stable, so candidates that
// tie on both keys keep their merge order (human before mouse).
func RankCandidates(cands []MatchCandidate, cardURLBase string) []GeneSetResult {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].OverlapCount != cands[j].OverlapCount {
			return cands[i].OverlapCount > cands[j].OverlapCount
		}
		return cands[i].PValue < cands[j].PValue
	})

	results := make([]GeneSetResult, len(cands))
	for i, c := range cands {
		matched := c.MatchedGenes
		if matched == nil {
			matched = []string{}
		}
		results[i] = GeneSetResult{
			GeneSetID:         c.GeneSetID,
			GeneSetName:       c.GeneSetName,
			Collection:        c.Collection,
			SubCollection:     c.SubCollection,
			Description:       c.Description,
			Species:           c.Species,
			GeneSetSize:       c.GeneSetSize,
			OverlapCount:      c.OverlapCount,
			OverlapPercentage: c.OverlapPercentage,
			PValue:            c.PValue,
			AdjustedPValue:    c.AdjustedPValue,
			OddsRatio:         c.OddsRatio,
			MatchedGenes:      matched,
			MatchType:         c.MatchType,
			MSigDBURL:         cardURLBase + c.GeneSetName,
			ExternalURL:       c.ExternalURL,
			Rank:              i + 1,
		}
	}
	return results
}
