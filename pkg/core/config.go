package core

// Defaults applied by NewEngine when the corresponding Config field is zero.
const (
	// DefaultUniverseSize approximates the number of protein-coding genes
	// assumed by the hypergeometric model.
	DefaultUniverseSize = 20000
	// DefaultFuzzyThreshold is the minimum similarity ratio (0-100) for a
	// vocabulary symbol to count as a fuzzy match.
	DefaultFuzzyThreshold = 80
	// DefaultFuzzyLimit caps the fuzzy matches kept per query symbol.
	DefaultFuzzyLimit = 5
	// DefaultCandidateCap caps the candidates the matcher returns per
	// species before scoring.
	DefaultCandidateCap = 1000
	// DefaultHistoryTopN caps the ranked results persisted per query.
	DefaultHistoryTopN = 100
	// DefaultCardURLBase is the public card page prefix for gene sets.
	DefaultCardURLBase = "https://www.gsea-msigdb.org/gsea/msigdb/cards/"
)

// Config defines engine configuration.
type Config struct {
	// HumanStorePath is the path to the human reference store file.
	// Empty disables human searches.
	HumanStorePath string

	// MouseStorePath is the path to the mouse reference store file.
	// Empty disables mouse searches.
	MouseStorePath string

	// HistoryPath is the path to the query history database. Empty
	// disables persistence; searches still run normally.
	HistoryPath string

	// UniverseSize is the assumed total gene count for enrichment
	// statistics. Zero means DefaultUniverseSize.
	UniverseSize int

	// FuzzyThreshold is the similarity cutoff (0-100) for fuzzy matching.
	// Zero means DefaultFuzzyThreshold.
	FuzzyThreshold int

	// FuzzyLimit is the maximum fuzzy matches kept per query symbol.
	// Zero means DefaultFuzzyLimit.
	FuzzyLimit int

	// CandidateCap bounds the matcher output per species. Zero means
	// DefaultCandidateCap.
	CandidateCap int

	// HistoryTopN bounds how many ranked results are persisted per query.
	// Zero means DefaultHistoryTopN.
	HistoryTopN int

	// MinGeneSetSize drops candidate sets smaller than this when positive.
	MinGeneSetSize int

	// MaxGeneSetSize drops candidate sets larger than this when positive.
	MaxGeneSetSize int

	// CardURLBase prefixes gene set names to build card URLs. Empty means
	// DefaultCardURLBase.
	CardURLBase string

	// Logger receives engine diagnostics. Nil means NopLogger.
	Logger Logger
}

// DefaultConfig returns a config with sensible defaults. Store paths must
// still be set by the caller.
func DefaultConfig() Config {
	return Config{
		UniverseSize:   DefaultUniverseSize,
		FuzzyThreshold: DefaultFuzzyThreshold,
		FuzzyLimit:     DefaultFuzzyLimit,
		CandidateCap:   DefaultCandidateCap,
		HistoryTopN:    DefaultHistoryTopN,
		CardURLBase:    DefaultCardURLBase,
	}
}

// StorePath returns the configured reference store path for a concrete
// species, or "" when that species is not configured.
func (c Config) StorePath(sp Species) string {
	switch sp {
	case SpeciesHuman:
		return c.HumanStorePath
	case SpeciesMouse:
		return c.MouseStorePath
	}
	return ""
}

// withDefaults fills zero-valued fields so the engine never has to
// re-check them.
func (c Config) withDefaults() Config {
	if c.UniverseSize <= 0 {
		c.UniverseSize = DefaultUniverseSize
	}
	if c.FuzzyThreshold <= 0 {
		c.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if c.FuzzyLimit <= 0 {
		c.FuzzyLimit = DefaultFuzzyLimit
	}
	if c.CandidateCap <= 0 {
		c.CandidateCap = DefaultCandidateCap
	}
	if c.HistoryTopN <= 0 {
		c.HistoryTopN = DefaultHistoryTopN
	}
	if c.CardURLBase == "" {
		c.CardURLBase = DefaultCardURLBase
	}
	if c.Logger == nil {
		c.Logger = NopLogger()
	}
	return c
}
