package core

import (
	"context"
	"database/sql"
	"fmt"
)

// ReferenceSet is one gene set to load into a reference store.
type ReferenceSet struct {
	Name        string
	Description string
	ExternalURL string
	Genes       []string
}

// StoreBuilder writes gene sets into a reference store file laid out in
// the vendor schema, for building fixtures and importing GMT exports.
// It is the only component that opens a reference store writable; the
// engine itself always opens stores read-only.
type StoreBuilder struct {
	db     *sql.DB
	path   string
	logger Logger
}

// NewStoreBuilder opens a writable store at path, creating the file and
// the vendor tables when missing.
func NewStoreBuilder(ctx context.Context, path string, logger Logger) (*StoreBuilder, error) {
	const op = "open_builder"

	if path == "" {
		return nil, wrapError(op, fmt.Errorf("store path cannot be empty"))
	}
	if logger == nil {
		logger = NopLogger()
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-2000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("failed to open database: %w", err))
	}

	b := &StoreBuilder{db: db, path: path, logger: logger}
	if err := b.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// init creates the vendor tables if they do not exist.
func (b *StoreBuilder) init(ctx context.Context) error {
	const op = "builder_init"

	if _, err := b.db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return wrapError(op, fmt.Errorf("failed to enable foreign keys: %w", err))
	}

	schema := `
	CREATE TABLE IF NOT EXISTS gene_set (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		standard_name TEXT UNIQUE NOT NULL,
		collection_name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gene_symbol (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gene_set_gene_symbol (
		gene_set_id INTEGER NOT NULL,
		gene_symbol_id INTEGER NOT NULL,
		PRIMARY KEY (gene_set_id, gene_symbol_id),
		FOREIGN KEY (gene_set_id) REFERENCES gene_set(id) ON DELETE CASCADE,
		FOREIGN KEY (gene_symbol_id) REFERENCES gene_symbol(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS gene_set_details (
		gene_set_id INTEGER PRIMARY KEY,
		systematic_name TEXT,
		description_brief TEXT,
		description_full TEXT,
		external_details_URL TEXT,
		FOREIGN KEY (gene_set_id) REFERENCES gene_set(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_gene_set_collection ON gene_set(collection_name);
	CREATE INDEX IF NOT EXISTS idx_gsgs_symbol ON gene_set_gene_symbol(gene_symbol_id);
	`
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return wrapError(op, fmt.Errorf("failed to create tables: %w", err))
	}
	return nil
}

// AddSets loads gene sets into one collection in a single transaction.
// A set whose standard name already exists is replaced wholesale: the
// old row's memberships and details are removed with it.
func (b *StoreBuilder) AddSets(ctx context.Context, collection string, sets []ReferenceSet) error {
	const op = "add_sets"

	if collection == "" {
		return wrapError(op, fmt.Errorf("collection cannot be empty"))
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapError(op, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	insertSymbol, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO gene_symbol (symbol) VALUES (?)")
	if err != nil {
		return wrapError(op, err)
	}
	defer insertSymbol.Close()

	selectSymbol, err := tx.PrepareContext(ctx, "SELECT id FROM gene_symbol WHERE symbol = ?")
	if err != nil {
		return wrapError(op, err)
	}
	defer selectSymbol.Close()

	insertMember, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO gene_set_gene_symbol (gene_set_id, gene_symbol_id) VALUES (?, ?)")
	if err != nil {
		return wrapError(op, err)
	}
	defer insertMember.Close()

	for _, set := range sets {
		if set.Name == "" {
			return wrapError(op, fmt.Errorf("set with empty name"))
		}
		if len(set.Genes) == 0 {
			return wrapError(op, fmt.Errorf("set %s has no symbols", set.Name))
		}

		// REPLACE assigns a fresh id, so the old row's memberships and
		// details must go explicitly; foreign_keys is per-connection and
		// cannot be trusted across the pool
		var oldID int64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM gene_set WHERE standard_name = ?", set.Name).Scan(&oldID)
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return wrapError(op, fmt.Errorf("failed to look up set %s: %w", set.Name, err))
		default:
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM gene_set_gene_symbol WHERE gene_set_id = ?", oldID); err != nil {
				return wrapError(op, fmt.Errorf("failed to clear members of %s: %w", set.Name, err))
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM gene_set_details WHERE gene_set_id = ?", oldID); err != nil {
				return wrapError(op, fmt.Errorf("failed to clear details of %s: %w", set.Name, err))
			}
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO gene_set (standard_name, collection_name) VALUES (?, ?)",
			set.Name, collection); err != nil {
			return wrapError(op, fmt.Errorf("failed to insert set %s: %w", set.Name, err))
		}

		var setID int64
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM gene_set WHERE standard_name = ?", set.Name).Scan(&setID); err != nil {
			return wrapError(op, fmt.Errorf("failed to resolve set %s: %w", set.Name, err))
		}

		for _, gene := range set.Genes {
			if _, err := insertSymbol.ExecContext(ctx, gene); err != nil {
				return wrapError(op, fmt.Errorf("failed to insert symbol %s: %w", gene, err))
			}
			var symbolID int64
			if err := selectSymbol.QueryRowContext(ctx, gene).Scan(&symbolID); err != nil {
				return wrapError(op, fmt.Errorf("failed to resolve symbol %s: %w", gene, err))
			}
			if _, err := insertMember.ExecContext(ctx, setID, symbolID); err != nil {
				return wrapError(op, fmt.Errorf("failed to link %s to %s: %w", gene, set.Name, err))
			}
		}

		if set.Description != "" || set.ExternalURL != "" {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO gene_set_details (gene_set_id, description_brief, external_details_URL)
				VALUES (?, ?, ?)`,
				setID, nullableString(set.Description), nullableString(set.ExternalURL)); err != nil {
				return wrapError(op, fmt.Errorf("failed to insert details for %s: %w", set.Name, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapError(op, fmt.Errorf("failed to commit: %w", err))
	}

	b.logger.Info("sets loaded", "collection", collection, "count", len(sets), "path", b.path)
	return nil
}

// Close closes the builder's database handle.
func (b *StoreBuilder) Close() error {
	return b.db.Close()
}
