package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HistoryStore persists searches and their ranked results so past
// queries can be listed and replayed. Unlike reference stores it is
// owned by the engine and stays open for the engine's lifetime.
type HistoryStore struct {
	db     *sql.DB
	path   string
	logger Logger
	mu     sync.RWMutex
	closed bool
}

// NewHistoryStore opens (creating if needed) the history database at
// path. Call Init before first use.
func NewHistoryStore(path string, logger Logger) (*HistoryStore, error) {
	if path == "" {
		return nil, wrapError("history_open", fmt.Errorf("history path cannot be empty"))
	}
	if logger == nil {
		logger = NopLogger()
	}

	// _journal_mode=WAL: Better concurrency
	// _synchronous=NORMAL: Good balance of safety and speed
	// _busy_timeout=5000: Wait up to 5s for lock instead of failing immediately
	// _cache_size=-2000: Use 2MB of memory for cache (negative value = kb)
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-2000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wrapError("history_open", fmt.Errorf("failed to open database: %w", err))
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(2 * time.Hour)

	return &HistoryStore{db: db, path: path, logger: logger}, nil
}

// Init creates the history tables if they do not exist.
func (h *HistoryStore) Init(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return wrapError("history_init", ErrStoreClosed)
	}

	if _, err := h.db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return wrapError("history_init", fmt.Errorf("failed to enable foreign keys: %w", err))
	}

	schema := `
	CREATE TABLE IF NOT EXISTS search_queries (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		query_text TEXT NOT NULL,
		genes TEXT NOT NULL, -- JSON array of canonical symbols
		species TEXT NOT NULL,
		search_type TEXT NOT NULL,
		collections TEXT, -- JSON array, NULL when unrestricted
		num_results INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_search_queries_user ON search_queries(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_search_queries_created_at ON search_queries(created_at);

	CREATE TABLE IF NOT EXISTS search_results (
		id TEXT PRIMARY KEY,
		query_id TEXT NOT NULL,
		gene_set_id TEXT NOT NULL,
		gene_set_name TEXT NOT NULL,
		collection TEXT NOT NULL,
		sub_collection TEXT,
		description TEXT,
		species TEXT NOT NULL,
		gene_set_size INTEGER NOT NULL,
		overlap_count INTEGER NOT NULL,
		overlap_percentage REAL NOT NULL,
		p_value REAL,
		adjusted_p_value REAL,
		odds_ratio REAL,
		matched_genes TEXT NOT NULL, -- JSON array
		all_genes TEXT, -- JSON array, NULL when member fetch was skipped
		match_type TEXT NOT NULL DEFAULT 'exact',
		msigdb_url TEXT,
		external_url TEXT,
		rank INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (query_id) REFERENCES search_queries(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_search_results_query ON search_results(query_id, rank);
	`
	if _, err := h.db.ExecContext(ctx, schema); err != nil {
		return wrapError("history_init", fmt.Errorf("failed to create tables: %w", err))
	}

	return nil
}

// Close closes the database connection and releases resources
func (h *HistoryStore) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.db != nil {
		if err := h.db.Close(); err != nil {
			return err
		}
	}

	h.logger.Debug("history store closed", "path", h.path)
	return nil
}

// Record persists one search response and up to topN of its ranked
// results in a single transaction. members optionally maps species and
// gene set name to the set's full member list; results without an entry
// store NULL. The same set name can exist in both species' stores, so
// the lookup is species-qualified.
func (h *HistoryStore) Record(ctx context.Context, resp *SearchResponse, userID string, members map[Species]map[string][]string, topN int) error {
	const op = "history_record"

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return wrapError(op, ErrStoreClosed)
	}

	genesJSON, _ := json.Marshal(resp.Genes)
	var collectionsJSON []byte
	if len(resp.Collections) > 0 {
		collectionsJSON, _ = json.Marshal(resp.Collections)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapError(op, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO search_queries (id, user_id, query_text, genes, species, search_type, collections, num_results, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		resp.QueryID, nullableString(userID), resp.Query, genesJSON,
		string(resp.Species), string(resp.SearchType), nullableBytes(collectionsJSON), resp.NumResults)
	if err != nil {
		return wrapError(op, fmt.Errorf("failed to insert query: %w", err))
	}

	if topN <= 0 || topN > len(resp.Results) {
		topN = len(resp.Results)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO search_results (
			id, query_id, gene_set_id, gene_set_name, collection, sub_collection,
			description, species, gene_set_size, overlap_count, overlap_percentage,
			p_value, adjusted_p_value, odds_ratio, matched_genes, all_genes,
			match_type, msigdb_url, external_url, rank, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return wrapError(op, fmt.Errorf("failed to prepare results insert: %w", err))
	}
	defer stmt.Close()

	for _, r := range resp.Results[:topN] {
		matchedJSON, _ := json.Marshal(r.MatchedGenes)
		var allGenesJSON []byte
		if genes, ok := members[r.Species][r.GeneSetName]; ok {
			allGenesJSON, _ = json.Marshal(genes)
		}

		var odds sql.NullFloat64
		if r.OddsRatio != nil {
			odds = sql.NullFloat64{Float64: *r.OddsRatio, Valid: true}
		}

		_, err = stmt.ExecContext(ctx,
			uuid.NewString(), resp.QueryID, r.GeneSetID, r.GeneSetName, r.Collection,
			nullableString(r.SubCollection), nullableString(r.Description),
			string(r.Species), r.GeneSetSize, r.OverlapCount, r.OverlapPercentage,
			r.PValue, r.AdjustedPValue, odds, matchedJSON, nullableBytes(allGenesJSON),
			string(r.MatchType), nullableString(r.MSigDBURL), nullableString(r.ExternalURL), r.Rank)
		if err != nil {
			return wrapError(op, fmt.Errorf("failed to insert result %s: %w", r.GeneSetName, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapError(op, fmt.Errorf("failed to commit: %w", err))
	}

	h.logger.Debug("search recorded", "query_id", resp.QueryID, "results", topN)
	return nil
}

// History lists persisted queries, most recent first. An empty userID
// lists every user's queries.
func (h *HistoryStore) History(ctx context.Context, userID string, limit int) ([]QueryRecord, error) {
	const op = "history_list"

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil, wrapError(op, ErrStoreClosed)
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, query_text, genes, species, search_type, collections, num_results, created_at
		FROM search_queries`
	args := []interface{}{}
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	// rowid breaks same-second timestamp ties by insertion order
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("failed to query history: %w", err))
	}
	defer rows.Close()

	var records []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		var user sql.NullString
		var genesJSON, collectionsJSON []byte
		if err := rows.Scan(&rec.ID, &user, &rec.Query, &genesJSON,
			&rec.Species, &rec.SearchType, &collectionsJSON, &rec.NumResults, &rec.CreatedAt); err != nil {
			return nil, wrapError(op, err)
		}
		rec.UserID = user.String
		if len(genesJSON) > 0 {
			_ = json.Unmarshal(genesJSON, &rec.Genes)
		}
		if len(collectionsJSON) > 0 {
			_ = json.Unmarshal(collectionsJSON, &rec.Collections)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Results replays the persisted ranked results of one query, rank order.
func (h *HistoryStore) Results(ctx context.Context, queryID string) ([]GeneSetResult, error) {
	const op = "history_results"

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil, wrapError(op, ErrStoreClosed)
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT gene_set_id, gene_set_name, collection, sub_collection, description,
			species, gene_set_size, overlap_count, overlap_percentage,
			p_value, adjusted_p_value, odds_ratio, matched_genes,
			match_type, msigdb_url, external_url, rank
		FROM search_results
		WHERE query_id = ?
		ORDER BY rank`, queryID)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("failed to query results: %w", err))
	}
	defer rows.Close()

	var results []GeneSetResult
	for rows.Next() {
		var r GeneSetResult
		var subCollection, description, msigdbURL, externalURL sql.NullString
		var odds sql.NullFloat64
		var matchedJSON []byte
		if err := rows.Scan(&r.GeneSetID, &r.GeneSetName, &r.Collection, &subCollection,
			&description, &r.Species, &r.GeneSetSize, &r.OverlapCount, &r.OverlapPercentage,
			&r.PValue, &r.AdjustedPValue, &odds, &matchedJSON,
			&r.MatchType, &msigdbURL, &externalURL, &r.Rank); err != nil {
			return nil, wrapError(op, err)
		}
		r.SubCollection = subCollection.String
		r.Description = description.String
		r.MSigDBURL = msigdbURL.String
		r.ExternalURL = externalURL.String
		if odds.Valid {
			v := odds.Float64
			r.OddsRatio = &v
		}
		if len(matchedJSON) > 0 {
			_ = json.Unmarshal(matchedJSON, &r.MatchedGenes)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// nullableString maps "" to NULL for optional text columns.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullableBytes maps empty JSON to NULL.
func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
