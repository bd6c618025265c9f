package core

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver
)

// ReferenceStore is a read-only handle on one species' gene set database.
//
// The file layout follows the MSigDB SQLite export: gene_set holds one
// row per set, gene_symbol one row per distinct symbol, and
// gene_set_gene_symbol the memberships between them. gene_set_details
// carries optional descriptions and external URLs. The schema is a fixed
// external contract; this store never alters it.
//
// Stores are cheap to open and are meant to be opened per request and
// closed when the request finishes, so a database file swapped on disk
// between requests is picked up without restarting the engine.
type ReferenceStore struct {
	db      *sql.DB
	species Species
	path    string
	logger  Logger
	mu      sync.RWMutex
	closed  bool
}

// OpenReferenceStore opens the reference store for one species in
// read-only mode. A missing path or file reports ErrStoreUnavailable so
// callers can degrade instead of failing the whole search.
func OpenReferenceStore(ctx context.Context, path string, species Species, logger Logger) (*ReferenceStore, error) {
	const op = "open_reference"

	if logger == nil {
		logger = NopLogger()
	}
	if path == "" {
		return nil, wrapError(op, fmt.Errorf("%w: no %s store configured", ErrStoreUnavailable, species))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, wrapError(op, fmt.Errorf("%w: %s store at %s: %v", ErrStoreUnavailable, species, path, err))
	}

	// mode=ro keeps concurrent per-request handles from ever taking a
	// write lock on the shared file
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("%w: %s store at %s: %v", ErrStoreUnavailable, species, path, err))
	}

	// Queries on one handle run sequentially; a small pool is enough.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrapError(op, fmt.Errorf("%w: %s store at %s: %v", ErrStoreUnavailable, species, path, err))
	}

	logger.Debug("reference store opened", "species", species, "path", path)

	return &ReferenceStore{
		db:      db,
		species: species,
		path:    path,
		logger:  logger,
	}, nil
}

// Species returns the species this store serves.
func (s *ReferenceStore) Species() Species {
	return s.species
}

// Path returns the database file path.
func (s *ReferenceStore) Path() string {
	return s.path
}

// Close closes the database connection and releases resources
func (s *ReferenceStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
	}

	s.logger.Debug("reference store closed", "species", s.species)
	return nil
}

// Stats reports row counts and the approximate file size of the store.
func (s *ReferenceStore) Stats(ctx context.Context) (StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return StoreStats{}, wrapError("stats", ErrStoreClosed)
	}

	stats := StoreStats{Species: s.species, Path: s.path}

	counts := []struct {
		query string
		dst   *int64
	}{
		{"SELECT COUNT(*) FROM gene_set", &stats.GeneSets},
		{"SELECT COUNT(DISTINCT symbol) FROM gene_symbol", &stats.Symbols},
		{"SELECT COUNT(*) FROM gene_set_gene_symbol", &stats.Memberships},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return StoreStats{}, wrapError("stats", fmt.Errorf("failed to count rows: %w", err))
		}
	}

	// Get database file size (approximate)
	var size int64
	err := s.db.QueryRowContext(ctx, "SELECT page_count * page_size as size FROM pragma_page_count(), pragma_page_size()").Scan(&size)
	if err != nil {
		size = 0 // Continue without size info
	}
	stats.SizeBytes = size

	return stats, nil
}
