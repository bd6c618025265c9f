package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Search runs the full pipeline for one request.
//
// The response is always well-formed when the request itself is valid:
// it echoes the query, the parsed symbols, and the resolved species even
// when nothing matched. A reference store that cannot be opened degrades
// the search to the remaining species and is noted in the response
// message; only when every requested species fails does Search also
// return ErrNoSpeciesAvailable, still alongside the zero-result
// response. History persistence is best-effort and never fails a search.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	const op = "search"

	species := req.Species
	if species == "" {
		species = SpeciesAuto
	}
	if !species.Valid() {
		return nil, wrapError(op, fmt.Errorf("%w: %q", ErrInvalidSpecies, req.Species))
	}

	searchType := req.SearchType
	if searchType == "" {
		searchType = SearchExact
	}
	if !searchType.Valid() {
		return nil, wrapError(op, fmt.Errorf("%w: %q", ErrInvalidSearchType, req.SearchType))
	}

	threshold := req.FuzzyThreshold
	if threshold <= 0 {
		threshold = e.cfg.FuzzyThreshold
	}

	raw, genes := splitGeneTokens(req.Query)
	collections := normalizeCollections(req.Collections)

	resp := &SearchResponse{
		QueryID:     uuid.NewString(),
		Query:       req.Query,
		Genes:       genes,
		Species:     species,
		SearchType:  searchType,
		Collections: echoCollections(collections),
		Results:     []GeneSetResult{},
	}

	if len(genes) == 0 {
		resp.Message = "no gene symbols found in query"
		e.logger.Warn("empty query", "query_id", resp.QueryID)
		return resp, nil
	}

	if species == SpeciesAuto {
		// classify the tokens as typed; canonical symbols are all
		// upper-case and carry no species signal
		species = DetectSpecies(raw)
		resp.Species = species
		e.logger.Debug("species resolved", "query_id", resp.QueryID, "species", species)
	}

	q := GeneQuery{
		Genes:       genes,
		Species:     species,
		SearchType:  searchType,
		Collections: collections,
	}

	targets := species.Targets()
	perSpecies := make([][]MatchCandidate, len(targets))
	failures := make([]error, len(targets))

	var g errgroup.Group
	for i, sp := range targets {
		i, sp := i, sp // per-iteration copies; go directive < 1.22
		g.Go(func() error {
			cands, err := e.searchSpecies(ctx, q, sp, threshold)
			if err != nil {
				// one species failing must not cancel its sibling
				failures[i] = err
				e.logger.Warn("species search failed",
					"query_id", resp.QueryID, "species", sp, "error", err)
				return nil
			}
			perSpecies[i] = cands
			return nil
		})
	}
	_ = g.Wait()

	var all []MatchCandidate
	for _, cands := range perSpecies {
		all = append(all, cands...)
	}

	var unavailable []string
	for i, err := range failures {
		if err != nil {
			unavailable = append(unavailable, string(targets[i]))
		}
	}
	if len(unavailable) == len(targets) {
		resp.Message = fmt.Sprintf("no reference store available for %s", strings.Join(unavailable, ", "))
		return resp, wrapError(op, ErrNoSpeciesAvailable)
	}
	if len(unavailable) > 0 {
		resp.Message = fmt.Sprintf("skipped %s: reference store unavailable", strings.Join(unavailable, ", "))
	}

	for i := range all {
		p, or := EnrichmentStats(all[i].OverlapCount, all[i].GeneSetSize, len(genes), e.cfg.UniverseSize)
		all[i].PValue = p
		all[i].OddsRatio = or
	}

	if len(all) > 0 {
		ps := make([]float64, len(all))
		for i, c := range all {
			ps[i] = c.PValue
		}
		adjusted := BenjaminiHochberg(ps)
		for i := range all {
			all[i].AdjustedPValue = adjusted[i]
		}
	}

	resp.Results = RankCandidates(all, e.cfg.CardURLBase)
	resp.NumResults = len(resp.Results)

	e.logger.Info("search complete",
		"query_id", resp.QueryID,
		"genes", len(genes),
		"species", species,
		"type", searchType,
		"results", resp.NumResults)

	if e.history != nil {
		if err := e.persist(ctx, resp, req.UserID); err != nil {
			e.logger.Warn("failed to record search", "query_id", resp.QueryID, "error", err)
		}
	}

	return resp, nil
}

// searchSpecies opens one species' store and runs the requested matchers
// against it. Fuzzy matching expands the query into near-matching stored
// symbols, then re-runs the exact matcher over the expansion; with
// SearchBoth a set found by both matchers appears once per match type.
func (e *Engine) searchSpecies(ctx context.Context, q GeneQuery, sp Species, threshold int) ([]MatchCandidate, error) {
	rs, err := e.openStore(ctx, sp)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	opts := MatchOptions{
		Collections: q.Collections,
		Limit:       e.cfg.CandidateCap,
		MinSetSize:  e.cfg.MinGeneSetSize,
		MaxSetSize:  e.cfg.MaxGeneSetSize,
	}

	var out []MatchCandidate
	if q.SearchType.includesExact() {
		cands, err := rs.FindExact(ctx, q.Genes, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, cands...)
	}

	if q.SearchType.includesFuzzy() {
		fuzzy, err := rs.FuzzyMatches(ctx, q.Genes, threshold, e.cfg.FuzzyLimit)
		if err != nil {
			return nil, err
		}
		expanded := mergeSymbolSets(fuzzy)
		if len(expanded) > 0 {
			cands, err := rs.FindExact(ctx, expanded, opts)
			if err != nil {
				return nil, err
			}
			for i := range cands {
				cands[i].MatchType = MatchFuzzy
			}
			out = append(out, cands...)
		}
	}

	return out, nil
}

// persist records the response and the full member lists of its
// persisted slice in the history store.
func (e *Engine) persist(ctx context.Context, resp *SearchResponse, userID string) error {
	topN := e.cfg.HistoryTopN
	if topN > len(resp.Results) {
		topN = len(resp.Results)
	}

	members := e.fetchMembers(ctx, resp.Results[:topN])
	return e.history.Record(ctx, resp, userID, members, topN)
}

// fetchMembers batch-loads member lists for the persisted results,
// reopening each species' store once. Failures downgrade those rows to
// matched-genes-only; they never fail the search.
func (e *Engine) fetchMembers(ctx context.Context, results []GeneSetResult) map[Species]map[string][]string {
	bySpecies := make(map[Species][]string)
	for _, r := range results {
		bySpecies[r.Species] = append(bySpecies[r.Species], r.GeneSetName)
	}

	members := make(map[Species]map[string][]string, len(bySpecies))
	for sp, names := range bySpecies {
		rs, err := e.openStore(ctx, sp)
		if err != nil {
			e.logger.Warn("member fetch skipped", "species", sp, "error", err)
			continue
		}
		batch, err := rs.SetMembers(ctx, names)
		rs.Close()
		if err != nil {
			e.logger.Warn("member fetch failed", "species", sp, "error", err)
			continue
		}
		members[sp] = batch
	}
	return members
}

// echoCollections renders the normalized filter for the response echo.
func echoCollections(normalized []string) []string {
	if len(normalized) == 0 {
		return []string{"all"}
	}
	return normalized
}
