package core

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ExportFormat represents the format for a reference store export.
type ExportFormat string

const (
	// ExportFormatGMT exports gene sets as GMT lines, one set per line
	ExportFormatGMT ExportFormat = "gmt"
	// ExportFormatJSON exports gene sets as a JSON document with metadata
	ExportFormatJSON ExportFormat = "json"
	// ExportFormatCSV exports gene sets as CSV (members pipe-joined)
	ExportFormatCSV ExportFormat = "csv"
)

// ExportOptions defines options for a reference store export.
type ExportOptions struct {
	Format      ExportFormat // Export format
	Collections []string     // Optional collection filter, empty for all
}

// DefaultExportOptions returns default export options.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format: ExportFormatGMT,
	}
}

// ExportStats provides statistics about the export operation.
type ExportStats struct {
	GeneSets    int `json:"gene_sets"`
	Memberships int `json:"memberships"`
}

// ExportMetadata describes a JSON export.
type ExportMetadata struct {
	Species    Species `json:"species"`
	Count      int     `json:"count"`
	ExportedAt string  `json:"exported_at"`
}

// Export writes every gene set in the store to w in the requested
// format. GMT output round-trips through the import path: the
// description column carries the external URL when one is stored,
// otherwise the brief description.
func (s *ReferenceStore) Export(ctx context.Context, w io.Writer, opts ExportOptions) (*ExportStats, error) {
	const op = "export"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, wrapError(op, ErrStoreClosed)
	}

	sets, err := s.allSetDetailsLocked(ctx, opts.Collections)
	if err != nil {
		return nil, wrapError(op, err)
	}

	switch opts.Format {
	case ExportFormatGMT:
		return exportGMT(w, sets)
	case ExportFormatJSON:
		return exportJSON(w, s.species, sets)
	case ExportFormatCSV:
		return exportCSV(w, sets)
	default:
		return nil, wrapError(op, fmt.Errorf("unsupported format: %s", opts.Format))
	}
}

// ExportToFile exports the store to a file, removing the partial file
// when the export fails.
func (s *ReferenceStore) ExportToFile(ctx context.Context, path string, opts ExportOptions) (*ExportStats, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, wrapError("export_to_file", fmt.Errorf("failed to create file: %w", err))
	}
	defer func() { _ = file.Close() }()

	stats, err := s.Export(ctx, file, opts)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return stats, nil
}

// allSetDetailsLocked loads every gene set with details and members,
// ordered by collection then name. Callers hold the read lock.
func (s *ReferenceStore) allSetDetailsLocked(ctx context.Context, collections []string) ([]GeneSetDetails, error) {
	query := `
		SELECT gs.standard_name, gs.collection_name,
			gsd.systematic_name, gsd.description_brief,
			gsd.description_full, gsd.external_details_URL
		FROM gene_set gs
		LEFT JOIN gene_set_details gsd ON gs.id = gsd.gene_set_id`
	var args []interface{}
	if len(collections) > 0 {
		placeholders, colArgs := inClause(collections)
		query += fmt.Sprintf(" WHERE gs.collection_name IN (%s)", placeholders)
		args = colArgs
	}
	query += " ORDER BY gs.collection_name, gs.standard_name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query gene sets: %w", err)
	}
	defer rows.Close()

	var sets []GeneSetDetails
	for rows.Next() {
		var d GeneSetDetails
		var systematic, brief, full, externalURL sql.NullString
		if err := rows.Scan(&d.StandardName, &d.Collection,
			&systematic, &brief, &full, &externalURL); err != nil {
			return nil, fmt.Errorf("failed to scan gene set: %w", err)
		}
		d.SystematicName = systematic.String
		d.DescriptionBrief = brief.String
		d.DescriptionFull = full.String
		d.ExternalURL = externalURL.String
		d.Species = s.species
		sets = append(sets, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := make([]string, len(sets))
	for i, d := range sets {
		names[i] = d.StandardName
	}
	members, err := s.setMembersLocked(ctx, names)
	if err != nil {
		return nil, err
	}
	for i := range sets {
		sets[i].Genes = members[sets[i].StandardName]
		sets[i].GeneCount = len(sets[i].Genes)
	}
	return sets, nil
}

// exportGMT writes one tab-separated line per set.
func exportGMT(w io.Writer, sets []GeneSetDetails) (*ExportStats, error) {
	stats := &ExportStats{}

	bw := bufio.NewWriter(w)
	for _, set := range sets {
		desc := set.ExternalURL
		if desc == "" {
			desc = set.DescriptionBrief
		}
		line := set.StandardName + "\t" + desc + "\t" + strings.Join(set.Genes, "\t")
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return stats, wrapError("export_gmt", fmt.Errorf("failed to write gene set: %w", err))
		}
		stats.GeneSets++
		stats.Memberships += len(set.Genes)
	}
	if err := bw.Flush(); err != nil {
		return stats, wrapError("export_gmt", err)
	}
	return stats, nil
}

// exportJSON writes a JSON document with export metadata.
func exportJSON(w io.Writer, species Species, sets []GeneSetDetails) (*ExportStats, error) {
	stats := &ExportStats{GeneSets: len(sets)}
	for _, set := range sets {
		stats.Memberships += len(set.Genes)
	}

	export := struct {
		Metadata ExportMetadata   `json:"metadata"`
		GeneSets []GeneSetDetails `json:"gene_sets"`
	}{
		Metadata: ExportMetadata{
			Species:    species,
			Count:      len(sets),
			ExportedAt: time.Now().Format(time.RFC3339),
		},
		GeneSets: sets,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return nil, wrapError("export_json", fmt.Errorf("failed to encode JSON: %w", err))
	}
	return stats, nil
}

// exportCSV writes one row per set with members pipe-joined.
func exportCSV(w io.Writer, sets []GeneSetDetails) (*ExportStats, error) {
	stats := &ExportStats{}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	headers := []string{"standard_name", "collection", "description", "external_url", "gene_count", "genes"}
	if err := writer.Write(headers); err != nil {
		return nil, wrapError("export_csv", err)
	}

	for _, set := range sets {
		row := []string{
			set.StandardName,
			set.Collection,
			set.DescriptionBrief,
			set.ExternalURL,
			strconv.Itoa(set.GeneCount),
			strings.Join(set.Genes, "|"),
		}
		if err := writer.Write(row); err != nil {
			return stats, wrapError("export_csv", err)
		}
		stats.GeneSets++
		stats.Memberships += len(set.Genes)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, wrapError("export_csv", err)
	}
	return stats, nil
}
