package core

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/liliang-cn/enrichdb/internal/similarity"
)

// MatchOptions bounds what the exact matcher returns.
type MatchOptions struct {
	// Collections restricts matching to the named collection codes.
	// Nil or empty means all collections.
	Collections []string
	// Limit caps the candidates returned. <= 0 means DefaultCandidateCap.
	Limit int
	// MinSetSize drops sets smaller than this when positive.
	MinSetSize int
	// MaxSetSize drops sets larger than this when positive.
	MaxSetSize int
}

// FindExact returns every gene set sharing at least one symbol with the
// given list, with overlap counts and matched symbols filled in.
// Candidates come back ordered by descending overlap, then ascending set
// size, capped by opts.Limit. Symbol comparison is case-insensitive; the
// overlap percentage denominator is the deduplicated input list.
func (s *ReferenceStore) FindExact(ctx context.Context, genes []string, opts MatchOptions) ([]MatchCandidate, error) {
	const op = "find_exact"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, wrapError(op, ErrStoreClosed)
	}

	symbols := canonicalSymbols(genes)
	if len(symbols) == 0 {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultCandidateCap
	}

	placeholders, args := inClause(symbols)
	query := fmt.Sprintf(`
		SELECT
			gs.standard_name AS gene_set_id,
			gs.standard_name AS gene_set_name,
			gs.collection_name AS collection,
			gsd.description_brief AS description,
			gsd.external_details_URL AS external_url,
			COUNT(DISTINCT UPPER(sym.symbol)) AS overlap_count,
			(SELECT COUNT(*) FROM gene_set_gene_symbol WHERE gene_set_id = gs.id) AS gene_set_size
		FROM gene_set gs
		LEFT JOIN gene_set_details gsd ON gs.id = gsd.gene_set_id
		JOIN gene_set_gene_symbol gsgs ON gs.id = gsgs.gene_set_id
		JOIN gene_symbol sym ON gsgs.gene_symbol_id = sym.id
		WHERE UPPER(sym.symbol) IN (%s)`, placeholders)

	if len(opts.Collections) > 0 {
		colPlaceholders, colArgs := inClause(opts.Collections)
		query += fmt.Sprintf(" AND gs.collection_name IN (%s)", colPlaceholders)
		args = append(args, colArgs...)
	}

	query += `
		GROUP BY gs.id, gs.standard_name, gs.collection_name,
			gsd.description_brief, gsd.external_details_URL
		HAVING overlap_count > 0`
	if opts.MinSetSize > 0 {
		query += " AND gene_set_size >= ?"
		args = append(args, opts.MinSetSize)
	}
	if opts.MaxSetSize > 0 {
		query += " AND gene_set_size <= ?"
		args = append(args, opts.MaxSetSize)
	}
	query += `
		ORDER BY overlap_count DESC, gene_set_size ASC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("failed to query gene sets: %w", err))
	}
	defer rows.Close()

	var cands []MatchCandidate
	for rows.Next() {
		var c MatchCandidate
		var description, externalURL sql.NullString
		if err := rows.Scan(&c.GeneSetID, &c.GeneSetName, &c.Collection,
			&description, &externalURL, &c.OverlapCount, &c.GeneSetSize); err != nil {
			return nil, wrapError(op, fmt.Errorf("failed to scan gene set: %w", err))
		}
		c.Description = description.String
		c.ExternalURL = externalURL.String
		c.Species = s.species
		c.MatchType = MatchExact
		c.OverlapPercentage = float64(c.OverlapCount) / float64(len(symbols)) * 100
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(op, err)
	}
	if len(cands) == 0 {
		return nil, nil
	}

	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.GeneSetName
	}
	matched, err := s.matchedSymbols(ctx, names, symbols)
	if err != nil {
		return nil, wrapError(op, err)
	}
	for i := range cands {
		cands[i].MatchedGenes = matched[cands[i].GeneSetName]
	}

	return cands, nil
}

// matchedSymbols maps each named gene set to the stored symbols it shares
// with the given canonical list, one batched query for all sets.
func (s *ReferenceStore) matchedSymbols(ctx context.Context, names, symbols []string) (map[string][]string, error) {
	namePlaceholders, args := inClause(names)
	symPlaceholders, symArgs := inClause(symbols)
	args = append(args, symArgs...)

	query := fmt.Sprintf(`
		SELECT DISTINCT gs.standard_name, sym.symbol
		FROM gene_set gs
		JOIN gene_set_gene_symbol gsgs ON gs.id = gsgs.gene_set_id
		JOIN gene_symbol sym ON gsgs.gene_symbol_id = sym.id
		WHERE gs.standard_name IN (%s) AND UPPER(sym.symbol) IN (%s)
		ORDER BY gs.standard_name, sym.symbol`, namePlaceholders, symPlaceholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matched symbols: %w", err)
	}
	defer rows.Close()

	matched := make(map[string][]string, len(names))
	for rows.Next() {
		var name, symbol string
		if err := rows.Scan(&name, &symbol); err != nil {
			return nil, fmt.Errorf("failed to scan matched symbol: %w", err)
		}
		matched[name] = append(matched[name], symbol)
	}
	return matched, rows.Err()
}

// FuzzyMatches maps each query symbol to the vocabulary symbols scoring
// at least threshold (0-100), at most limit per symbol, best first.
// Symbols with no match at the threshold are absent from the result.
func (s *ReferenceStore) FuzzyMatches(ctx context.Context, genes []string, threshold, limit int) (map[string][]string, error) {
	const op = "fuzzy_matches"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, wrapError(op, ErrStoreClosed)
	}
	if len(genes) == 0 {
		return nil, nil
	}

	vocab, err := s.vocabularyLocked(ctx)
	if err != nil {
		return nil, wrapError(op, err)
	}

	matches := make(map[string][]string)
	for _, gene := range genes {
		hits := similarity.Extract(gene, vocab, float64(threshold), limit)
		if len(hits) == 0 {
			continue
		}
		symbols := make([]string, len(hits))
		for i, h := range hits {
			symbols[i] = h.Symbol
		}
		matches[gene] = symbols
	}
	return matches, nil
}

// Vocabulary returns every distinct symbol in the store, sorted.
func (s *ReferenceStore) Vocabulary(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, wrapError("vocabulary", ErrStoreClosed)
	}
	vocab, err := s.vocabularyLocked(ctx)
	if err != nil {
		return nil, wrapError("vocabulary", err)
	}
	return vocab, nil
}

func (s *ReferenceStore) vocabularyLocked(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT symbol FROM gene_symbol ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary: %w", err)
	}
	defer rows.Close()

	var vocab []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		vocab = append(vocab, symbol)
	}
	return vocab, rows.Err()
}

// SetDetails returns the full record for one gene set by its standard
// name, including all member symbols. Reports ErrNotFound when the name
// does not exist.
func (s *ReferenceStore) SetDetails(ctx context.Context, name string) (*GeneSetDetails, error) {
	const op = "set_details"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, wrapError(op, ErrStoreClosed)
	}

	var d GeneSetDetails
	var systematic, brief, full, externalURL sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT gs.standard_name, gs.collection_name,
			gsd.systematic_name, gsd.description_brief,
			gsd.description_full, gsd.external_details_URL
		FROM gene_set gs
		LEFT JOIN gene_set_details gsd ON gs.id = gsd.gene_set_id
		WHERE gs.standard_name = ?`, name).
		Scan(&d.StandardName, &d.Collection, &systematic, &brief, &full, &externalURL)
	if err == sql.ErrNoRows {
		return nil, wrapError(op, fmt.Errorf("%w: %s", ErrNotFound, name))
	}
	if err != nil {
		return nil, wrapError(op, err)
	}

	d.SystematicName = systematic.String
	d.DescriptionBrief = brief.String
	d.DescriptionFull = full.String
	d.ExternalURL = externalURL.String
	d.Species = s.species

	rows, err := s.db.QueryContext(ctx, `
		SELECT sym.symbol
		FROM gene_set_gene_symbol gsgs
		JOIN gene_symbol sym ON gsgs.gene_symbol_id = sym.id
		WHERE gsgs.gene_set_id = (SELECT id FROM gene_set WHERE standard_name = ?)
		ORDER BY sym.symbol`, name)
	if err != nil {
		return nil, wrapError(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, wrapError(op, err)
		}
		d.Genes = append(d.Genes, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(op, err)
	}
	d.GeneCount = len(d.Genes)

	return &d, nil
}

// SetMembers maps each named gene set to its full member symbol list in
// one batched query. Names that do not exist are absent from the result.
func (s *ReferenceStore) SetMembers(ctx context.Context, names []string) (map[string][]string, error) {
	const op = "set_members"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, wrapError(op, ErrStoreClosed)
	}

	members, err := s.setMembersLocked(ctx, names)
	if err != nil {
		return nil, wrapError(op, err)
	}
	return members, nil
}

func (s *ReferenceStore) setMembersLocked(ctx context.Context, names []string) (map[string][]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(names)
	query := fmt.Sprintf(`
		SELECT gs.standard_name, sym.symbol
		FROM gene_set gs
		JOIN gene_set_gene_symbol gsgs ON gs.id = gsgs.gene_set_id
		JOIN gene_symbol sym ON gsgs.gene_symbol_id = sym.id
		WHERE gs.standard_name IN (%s)
		ORDER BY gs.standard_name, sym.symbol`, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query set members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string, len(names))
	for rows.Next() {
		var name, symbol string
		if err := rows.Scan(&name, &symbol); err != nil {
			return nil, err
		}
		members[name] = append(members[name], symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// canonicalSymbols upper-cases and deduplicates a symbol list, keeping
// input order.
func canonicalSymbols(genes []string) []string {
	out := make([]string, 0, len(genes))
	seen := make(map[string]struct{}, len(genes))
	for _, g := range genes {
		g = strings.ToUpper(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// mergeSymbolSets flattens fuzzy match lists into one sorted, distinct
// symbol list for re-matching.
func mergeSymbolSets(matches map[string][]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, symbols := range matches {
		for _, sym := range symbols {
			if _, dup := seen[sym]; dup {
				continue
			}
			seen[sym] = struct{}{}
			merged = append(merged, sym)
		}
	}
	sort.Strings(merged)
	return merged
}

// inClause builds the placeholder list and argument slice for a SQL IN
// clause.
func inClause(values []string) (string, []interface{}) {
	placeholders := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ","), args
}
