package core

import (
	"context"
	"fmt"
)

// Engine orchestrates the search pipeline: parsing, species resolution,
// matching, scoring, multiple-testing correction, ranking, and history
// persistence.
//
// Reference stores are opened per request and closed when the request
// finishes, so store files can be swapped on disk without restarting the
// engine. The history store, when configured, lives as long as the
// engine. An Engine is safe for concurrent use.
type Engine struct {
	cfg     Config
	logger  Logger
	history *HistoryStore
}

// NewEngine validates cfg and builds an engine. At least one reference
// store path must be configured; the files themselves are not touched
// until the first request. When cfg.HistoryPath is set the history
// database is opened and initialized here.
func NewEngine(cfg Config) (*Engine, error) {
	const op = "new_engine"

	cfg = cfg.withDefaults()
	if cfg.HumanStorePath == "" && cfg.MouseStorePath == "" {
		return nil, wrapError(op, fmt.Errorf("%w: no reference store paths configured", ErrInvalidConfig))
	}
	if cfg.MinGeneSetSize > 0 && cfg.MaxGeneSetSize > 0 && cfg.MinGeneSetSize > cfg.MaxGeneSetSize {
		return nil, wrapError(op, fmt.Errorf("%w: min gene set size %d exceeds max %d",
			ErrInvalidConfig, cfg.MinGeneSetSize, cfg.MaxGeneSetSize))
	}
	if cfg.FuzzyThreshold > 100 {
		return nil, wrapError(op, fmt.Errorf("%w: fuzzy threshold %d out of range", ErrInvalidConfig, cfg.FuzzyThreshold))
	}

	e := &Engine{cfg: cfg, logger: cfg.Logger}

	if cfg.HistoryPath != "" {
		hs, err := NewHistoryStore(cfg.HistoryPath, cfg.Logger)
		if err != nil {
			return nil, err
		}
		if err := hs.Init(context.Background()); err != nil {
			hs.Close()
			return nil, err
		}
		e.history = hs
	}

	e.logger.Info("engine ready",
		"human_store", cfg.HumanStorePath,
		"mouse_store", cfg.MouseStorePath,
		"history", cfg.HistoryPath != "")

	return e, nil
}

// Config returns the engine's effective configuration, defaults applied.
func (e *Engine) Config() Config {
	return e.cfg
}

// Close releases the history store, if any. Reference stores are
// per-request and need no teardown here.
func (e *Engine) Close() error {
	if e.history == nil {
		return nil
	}
	return e.history.Close()
}

// Collections returns the known collection catalog.
func (e *Engine) Collections() []CollectionInfo {
	return Collections()
}

// openStore opens the reference store for one concrete species.
func (e *Engine) openStore(ctx context.Context, sp Species) (*ReferenceStore, error) {
	return OpenReferenceStore(ctx, e.cfg.StorePath(sp), sp, e.logger)
}

// GeneSetDetails returns the full record of one gene set from the given
// species' store. Species must be human or mouse; a set that does not
// exist reports ErrNotFound.
func (e *Engine) GeneSetDetails(ctx context.Context, name string, sp Species) (*GeneSetDetails, error) {
	const op = "gene_set_details"

	if sp != SpeciesHuman && sp != SpeciesMouse {
		return nil, wrapError(op, fmt.Errorf("%w: %q (want human or mouse)", ErrInvalidSpecies, sp))
	}

	rs, err := e.openStore(ctx, sp)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	return rs.SetDetails(ctx, name)
}

// StoreStats reports statistics for one species' reference store.
func (e *Engine) StoreStats(ctx context.Context, sp Species) (StoreStats, error) {
	const op = "store_stats"

	if sp != SpeciesHuman && sp != SpeciesMouse {
		return StoreStats{}, wrapError(op, fmt.Errorf("%w: %q (want human or mouse)", ErrInvalidSpecies, sp))
	}

	rs, err := e.openStore(ctx, sp)
	if err != nil {
		return StoreStats{}, err
	}
	defer rs.Close()

	return rs.Stats(ctx)
}

// History lists persisted queries, most recent first. An empty userID
// lists all users. Reports ErrHistoryDisabled when no history store is
// configured.
func (e *Engine) History(ctx context.Context, userID string, limit int) ([]QueryRecord, error) {
	if e.history == nil {
		return nil, wrapError("history_list", ErrHistoryDisabled)
	}
	return e.history.History(ctx, userID, limit)
}

// HistoryResults replays the persisted ranked results of one query.
func (e *Engine) HistoryResults(ctx context.Context, queryID string) ([]GeneSetResult, error) {
	if e.history == nil {
		return nil, wrapError("history_results", ErrHistoryDisabled)
	}
	return e.history.Results(ctx, queryID)
}
