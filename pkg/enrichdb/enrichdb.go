// Package enrichdb provides a gene set enrichment engine over SQLite
// reference stores for Go bioinformatics projects.
package enrichdb

import (
	"context"

	"github.com/liliang-cn/enrichdb/pkg/core"
)

// DB represents an enrichment database instance spanning the configured
// species' reference stores.
type DB struct {
	engine *core.Engine
}

// Config represents database configuration. Either store path may be
// empty to disable that species.
type Config struct {
	HumanStorePath string // Human reference store file path
	MouseStorePath string // Mouse reference store file path
	HistoryPath    string // Query history file path ("" disables history)
}

// DefaultConfig returns default configuration for the given store paths.
func DefaultConfig(humanPath, mousePath string) Config {
	return Config{
		HumanStorePath: humanPath,
		MouseStorePath: mousePath,
	}
}

// Option is a functional option for configuring the DB.
type Option func(*core.Config)

// WithLogger configures the DB with a logger for engine diagnostics.
func WithLogger(logger core.Logger) Option {
	return func(cfg *core.Config) {
		cfg.Logger = logger
	}
}

// WithHistory enables query history persistence at the given path.
func WithHistory(path string) Option {
	return func(cfg *core.Config) {
		cfg.HistoryPath = path
	}
}

// WithUniverseSize overrides the assumed total gene count used by the
// enrichment statistics.
func WithUniverseSize(n int) Option {
	return func(cfg *core.Config) {
		cfg.UniverseSize = n
	}
}

// WithFuzzyThreshold overrides the default fuzzy similarity cutoff
// (0-100).
func WithFuzzyThreshold(n int) Option {
	return func(cfg *core.Config) {
		cfg.FuzzyThreshold = n
	}
}

// WithCandidateCap bounds how many candidate sets the matcher returns
// per species.
func WithCandidateCap(n int) Option {
	return func(cfg *core.Config) {
		cfg.CandidateCap = n
	}
}

// WithSetSizeBounds drops candidate sets outside [min, max]. Either
// bound may be zero to leave that side open.
func WithSetSizeBounds(min, max int) Option {
	return func(cfg *core.Config) {
		cfg.MinGeneSetSize = min
		cfg.MaxGeneSetSize = max
	}
}

// Open opens an enrichment database over the configured reference
// stores. Additional options can be passed, such as WithHistory or
// WithLogger. The store files are validated lazily on first use, so a
// missing file degrades that species instead of failing here.
func Open(config Config, opts ...Option) (*DB, error) {
	coreConfig := core.DefaultConfig()
	coreConfig.HumanStorePath = config.HumanStorePath
	coreConfig.MouseStorePath = config.MouseStorePath
	coreConfig.HistoryPath = config.HistoryPath

	for _, opt := range opts {
		opt(&coreConfig)
	}

	engine, err := core.NewEngine(coreConfig)
	if err != nil {
		return nil, err
	}

	return &DB{engine: engine}, nil
}

// Engine returns the underlying enrichment engine.
func (db *DB) Engine() *core.Engine {
	return db.engine
}

// Close closes the database.
func (db *DB) Close() error {
	return db.engine.Close()
}

// Search runs one enrichment search request.
func (db *DB) Search(ctx context.Context, req core.SearchRequest) (*core.SearchResponse, error) {
	return db.engine.Search(ctx, req)
}

// Collections returns the known collection catalog.
func (db *DB) Collections() []core.CollectionInfo {
	return db.engine.Collections()
}

// GeneSetDetails returns the full record of one gene set from the given
// species' store.
func (db *DB) GeneSetDetails(ctx context.Context, name string, species core.Species) (*core.GeneSetDetails, error) {
	return db.engine.GeneSetDetails(ctx, name, species)
}

// StoreStats reports statistics for one species' reference store.
func (db *DB) StoreStats(ctx context.Context, species core.Species) (core.StoreStats, error) {
	return db.engine.StoreStats(ctx, species)
}

// History lists persisted queries, most recent first.
func (db *DB) History(ctx context.Context, userID string, limit int) ([]core.QueryRecord, error) {
	return db.engine.History(ctx, userID, limit)
}

// HistoryResults replays the persisted ranked results of one query.
func (db *DB) HistoryResults(ctx context.Context, queryID string) ([]core.GeneSetResult, error) {
	return db.engine.HistoryResults(ctx, queryID)
}

// Quick is a simplified interface for common operations
type Quick struct {
	db *DB
}

// Quick creates a simple interface for quick operations
func (db *DB) Quick() *Quick {
	return &Quick{db: db}
}

// Search runs an exact search with automatic species detection.
func (q *Quick) Search(ctx context.Context, query string) (*core.SearchResponse, error) {
	return q.db.Search(ctx, core.SearchRequest{Query: query})
}

// SearchFuzzy runs both exact and fuzzy matching with automatic species
// detection, for queries that may contain typos.
func (q *Quick) SearchFuzzy(ctx context.Context, query string) (*core.SearchResponse, error) {
	return q.db.Search(ctx, core.SearchRequest{
		Query:      query,
		SearchType: core.SearchBoth,
	})
}

// SearchSpecies runs an exact search against one species.
func (q *Quick) SearchSpecies(ctx context.Context, query string, species core.Species) (*core.SearchResponse, error) {
	return q.db.Search(ctx, core.SearchRequest{
		Query:   query,
		Species: species,
	})
}
