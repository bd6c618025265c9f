package core

import (
	"context"
	"path/filepath"
	"testing"
)

// humanFixture returns a small human reference store's contents, keyed
// by collection code.
func humanFixture() map[string][]ReferenceSet {
	return map[string][]ReferenceSet{
		"H": {
			{
				Name:        "HALLMARK_APOPTOSIS",
				Description: "Genes mediating programmed cell death",
				ExternalURL: "https://example.org/apoptosis",
				Genes:       []string{"TP53", "BAX", "CASP3", "FAS", "BCL2", "CASP8", "CASP9", "PMAIP1"},
			},
			{
				Name:        "HALLMARK_P53_PATHWAY",
				Description: "Genes involved in p53 pathways and networks",
				Genes:       []string{"TP53", "MDM2", "CDKN1A", "BAX", "RRM2B", "SESN1"},
			},
			{
				Name:  "HALLMARK_EPITHELIAL_MESENCHYMAL_TRANSITION",
				Genes: []string{"VIM", "CDH2", "FN1", "SNAI1", "ZEB1"},
			},
		},
		"C2": {
			{
				Name:        "REACTOME_CELL_CYCLE",
				Description: "Cell cycle progression",
				Genes:       []string{"CDK1", "CCNB1", "CDC20", "PLK1", "BUB1", "AURKA", "AURKB", "TP53"},
			},
			{
				Name:  "KEGG_BREAST_CANCER",
				Genes: []string{"BRCA1", "BRCA2", "TP53", "PTEN", "EGFR"},
			},
		},
	}
}

// mouseFixture mirrors part of the human fixture with mouse casing and
// deliberately reuses standard names, which both species' stores do in
// practice.
func mouseFixture() map[string][]ReferenceSet {
	return map[string][]ReferenceSet{
		"MH": {
			{
				Name:        "HALLMARK_APOPTOSIS",
				Description: "Genes mediating programmed cell death",
				Genes:       []string{"Trp53", "Bax", "Casp3", "Fas", "Bcl2"},
			},
			{
				Name:  "HALLMARK_P53_PATHWAY",
				Genes: []string{"Trp53", "Mdm2", "Cdkn1a", "Bax"},
			},
		},
	}
}

// writeStore builds a reference store file at path from fixture
// contents.
func writeStore(t *testing.T, path string, collections map[string][]ReferenceSet) {
	t.Helper()

	ctx := context.Background()
	b, err := NewStoreBuilder(ctx, path, NopLogger())
	if err != nil {
		t.Fatalf("NewStoreBuilder() error = %v", err)
	}
	defer b.Close()

	for collection, sets := range collections {
		if err := b.AddSets(ctx, collection, sets); err != nil {
			t.Fatalf("AddSets(%s) error = %v", collection, err)
		}
	}
}

// newTestEngine builds an engine over fresh fixture stores with history
// enabled. Options mutate the config before the engine is created.
func newTestEngine(t *testing.T, opts ...func(*Config)) *Engine {
	t.Helper()

	dir := t.TempDir()
	humanPath := filepath.Join(dir, "human.db")
	mousePath := filepath.Join(dir, "mouse.db")
	writeStore(t, humanPath, humanFixture())
	writeStore(t, mousePath, mouseFixture())

	cfg := DefaultConfig()
	cfg.HumanStorePath = humanPath
	cfg.MouseStorePath = mousePath
	cfg.HistoryPath = filepath.Join(dir, "history.db")
	for _, opt := range opts {
		opt(&cfg)
	}

	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(func() {
		if err := e.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return e
}

// openTestStore opens a read-only handle on a fresh human fixture store.
func openTestStore(t *testing.T) *ReferenceStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "human.db")
	writeStore(t, path, humanFixture())

	rs, err := OpenReferenceStore(context.Background(), path, SpeciesHuman, NopLogger())
	if err != nil {
		t.Fatalf("OpenReferenceStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := rs.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return rs
}
