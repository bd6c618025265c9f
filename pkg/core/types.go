package core

import "time"

// Species identifies which reference stores a search runs against.
type Species string

const (
	// SpeciesAuto asks the engine to infer the species from symbol casing
	SpeciesAuto Species = "auto"
	// SpeciesHuman searches the human reference store only
	SpeciesHuman Species = "human"
	// SpeciesMouse searches the mouse reference store only
	SpeciesMouse Species = "mouse"
	// SpeciesBoth searches human and mouse reference stores
	SpeciesBoth Species = "both"
)

// Valid reports whether s is an accepted request value.
func (s Species) Valid() bool {
	switch s {
	case SpeciesAuto, SpeciesHuman, SpeciesMouse, SpeciesBoth:
		return true
	}
	return false
}

// Targets expands a resolved species into the concrete stores to search.
// SpeciesAuto has no targets; it must be resolved before expansion.
func (s Species) Targets() []Species {
	switch s {
	case SpeciesHuman:
		return []Species{SpeciesHuman}
	case SpeciesMouse:
		return []Species{SpeciesMouse}
	case SpeciesBoth:
		return []Species{SpeciesHuman, SpeciesMouse}
	}
	return nil
}

// SearchType selects the matching strategy for a search.
type SearchType string

const (
	// SearchExact matches parsed symbols against stored symbols directly
	SearchExact SearchType = "exact"
	// SearchFuzzy expands the query with near-matching symbols first
	SearchFuzzy SearchType = "fuzzy"
	// SearchBoth runs exact matching and fuzzy expansion
	SearchBoth SearchType = "both"
)

// Valid reports whether t is an accepted request value.
func (t SearchType) Valid() bool {
	switch t {
	case SearchExact, SearchFuzzy, SearchBoth:
		return true
	}
	return false
}

// includesExact reports whether the strategy runs the exact matcher.
func (t SearchType) includesExact() bool {
	return t == SearchExact || t == SearchBoth
}

// includesFuzzy reports whether the strategy runs the fuzzy matcher.
func (t SearchType) includesFuzzy() bool {
	return t == SearchFuzzy || t == SearchBoth
}

// MatchType records how a candidate gene set was found.
type MatchType string

const (
	// MatchExact means the overlap came from symbols typed in the query
	MatchExact MatchType = "exact"
	// MatchFuzzy means the overlap came from fuzzy-corrected symbols
	MatchFuzzy MatchType = "fuzzy"
)

// SearchRequest describes one enrichment search.
type SearchRequest struct {
	// Query is free text containing gene symbols separated by commas,
	// semicolons, or whitespace.
	Query string `json:"query"`
	// Species is auto, human, mouse, or both. Empty means auto.
	Species Species `json:"species,omitempty"`
	// SearchType is exact, fuzzy, or both. Empty means exact.
	SearchType SearchType `json:"search_type,omitempty"`
	// Collections restricts results to the named collection codes.
	// Nil, empty, or a list containing "all" means no restriction.
	Collections []string `json:"collections,omitempty"`
	// UserID attributes the query in history. Optional.
	UserID string `json:"user_id,omitempty"`
	// FuzzyThreshold overrides the configured similarity cutoff (0-100)
	// for this request. Zero means use the configured default.
	FuzzyThreshold int `json:"fuzzy_threshold,omitempty"`
}

// GeneQuery is the parsed, validated form of a request. It is built once
// per search and never mutated afterwards.
type GeneQuery struct {
	// Genes holds canonical (upper-cased, deduplicated) symbols in input order.
	Genes []string
	// Species is the resolved species; never SpeciesAuto.
	Species Species
	// SearchType is the resolved matching strategy.
	SearchType SearchType
	// Collections holds the normalized collection filter; nil means all.
	Collections []string
}

// MatchCandidate is one gene set produced by the matching stage, before
// scoring and ranking.
type MatchCandidate struct {
	GeneSetID         string
	GeneSetName       string
	Collection        string
	SubCollection     string
	Description       string
	ExternalURL       string
	Species           Species
	GeneSetSize       int
	OverlapCount      int
	OverlapPercentage float64
	MatchedGenes      []string
	MatchType         MatchType
	PValue            float64
	AdjustedPValue    float64
	OddsRatio         *float64
}

// GeneSetResult is one ranked result in a search response.
type GeneSetResult struct {
	GeneSetID         string    `json:"gene_set_id"`
	GeneSetName       string    `json:"gene_set_name"`
	Collection        string    `json:"collection"`
	SubCollection     string    `json:"sub_collection,omitempty"`
	Description       string    `json:"description,omitempty"`
	Species           Species   `json:"species"`
	GeneSetSize       int       `json:"gene_set_size"`
	OverlapCount      int       `json:"overlap_count"`
	OverlapPercentage float64   `json:"overlap_percentage"`
	PValue            float64   `json:"p_value"`
	AdjustedPValue    float64   `json:"adjusted_p_value"`
	OddsRatio         *float64  `json:"odds_ratio"`
	MatchedGenes      []string  `json:"matched_genes"`
	MatchType         MatchType `json:"match_type"`
	MSigDBURL         string    `json:"msigdb_url,omitempty"`
	ExternalURL       string    `json:"external_url,omitempty"`
	Rank              int       `json:"rank"`
}

// SearchResponse is the full outcome of one search.
type SearchResponse struct {
	QueryID     string          `json:"query_id"`
	Query       string          `json:"query"`
	Genes       []string        `json:"genes"`
	Species     Species         `json:"species"`
	SearchType  SearchType      `json:"search_type"`
	Collections []string        `json:"collections"`
	NumResults  int             `json:"num_results"`
	Results     []GeneSetResult `json:"results"`
	// Message carries a human-readable note for degraded searches, such as
	// a species whose reference store could not be opened.
	Message string `json:"message,omitempty"`
}

// GeneSetDetails is the full record of a single gene set, including its
// member symbols.
type GeneSetDetails struct {
	StandardName     string   `json:"standard_name"`
	SystematicName   string   `json:"systematic_name,omitempty"`
	Collection       string   `json:"collection_name"`
	DescriptionBrief string   `json:"description_brief,omitempty"`
	DescriptionFull  string   `json:"description_full,omitempty"`
	ExternalURL      string   `json:"external_details_url,omitempty"`
	Species          Species  `json:"species"`
	Genes            []string `json:"genes"`
	GeneCount        int      `json:"gene_count"`
}

// CollectionInfo describes one reference collection.
type CollectionInfo struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// QueryRecord is one persisted search in the history store.
type QueryRecord struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	Query       string     `json:"query"`
	Genes       []string   `json:"genes"`
	Species     Species    `json:"species"`
	SearchType  SearchType `json:"search_type"`
	Collections []string   `json:"collections,omitempty"`
	NumResults  int        `json:"num_results"`
	CreatedAt   time.Time  `json:"created_at"`
}

// StoreStats provides statistics about a reference store.
type StoreStats struct {
	Species     Species `json:"species"`
	Path        string  `json:"path"`
	GeneSets    int64   `json:"gene_sets"`
	Symbols     int64   `json:"symbols"`
	Memberships int64   `json:"memberships"`
	SizeBytes   int64   `json:"size_bytes"`
}
