package core

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestOpenReferenceStoreMissing(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"nonexistent file", filepath.Join(t.TempDir(), "absent.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenReferenceStore(ctx, tt.path, SpeciesHuman, NopLogger())
			if !errors.Is(err, ErrStoreUnavailable) {
				t.Errorf("OpenReferenceStore() error = %v, want ErrStoreUnavailable", err)
			}
		})
	}
}

func TestFindExact(t *testing.T) {
	rs := openTestStore(t)
	ctx := context.Background()

	cands, err := rs.FindExact(ctx, []string{"TP53", "BAX", "CASP3"}, MatchOptions{})
	if err != nil {
		t.Fatalf("FindExact() error = %v", err)
	}

	wantOrder := []string{
		"HALLMARK_APOPTOSIS",
		"HALLMARK_P53_PATHWAY",
		"KEGG_BREAST_CANCER",
		"REACTOME_CELL_CYCLE",
	}
	if len(cands) != len(wantOrder) {
		t.Fatalf("FindExact() returned %d candidates, want %d: %+v", len(cands), len(wantOrder), cands)
	}
	for i, want := range wantOrder {
		if cands[i].GeneSetName != want {
			t.Errorf("cands[%d].GeneSetName = %s, want %s", i, cands[i].GeneSetName, want)
		}
	}

	top := cands[0]
	if top.OverlapCount != 3 {
		t.Errorf("top.OverlapCount = %d, want 3", top.OverlapCount)
	}
	if top.GeneSetSize != 8 {
		t.Errorf("top.GeneSetSize = %d, want 8", top.GeneSetSize)
	}
	if top.OverlapPercentage != 100 {
		t.Errorf("top.OverlapPercentage = %v, want 100", top.OverlapPercentage)
	}
	if top.Collection != "H" {
		t.Errorf("top.Collection = %s, want H", top.Collection)
	}
	if top.Description != "Genes mediating programmed cell death" {
		t.Errorf("top.Description = %q", top.Description)
	}
	if top.ExternalURL != "https://example.org/apoptosis" {
		t.Errorf("top.ExternalURL = %q", top.ExternalURL)
	}
	if top.Species != SpeciesHuman {
		t.Errorf("top.Species = %v, want human", top.Species)
	}
	if top.MatchType != MatchExact {
		t.Errorf("top.MatchType = %v, want exact", top.MatchType)
	}
	if want := []string{"BAX", "CASP3", "TP53"}; !reflect.DeepEqual(top.MatchedGenes, want) {
		t.Errorf("top.MatchedGenes = %v, want %v", top.MatchedGenes, want)
	}

	if cands[1].OverlapCount != 2 {
		t.Errorf("cands[1].OverlapCount = %d, want 2", cands[1].OverlapCount)
	}
	if want := []string{"BAX", "TP53"}; !reflect.DeepEqual(cands[1].MatchedGenes, want) {
		t.Errorf("cands[1].MatchedGenes = %v, want %v", cands[1].MatchedGenes, want)
	}
	// Equal overlap orders the smaller set first.
	if cands[2].GeneSetSize != 5 || cands[3].GeneSetSize != 8 {
		t.Errorf("tie sizes = %d, %d, want 5, 8", cands[2].GeneSetSize, cands[3].GeneSetSize)
	}
}

func TestFindExactCaseInsensitive(t *testing.T) {
	rs := openTestStore(t)
	ctx := context.Background()

	cands, err := rs.FindExact(ctx, []string{"tp53", "Bax", "casp3"}, MatchOptions{})
	if err != nil {
		t.Fatalf("FindExact() error = %v", err)
	}
	if len(cands) == 0 || cands[0].OverlapCount != 3 {
		t.Fatalf("FindExact() lower-case query = %+v, want overlap 3 first", cands)
	}

	// Duplicate spellings collapse before the percentage is computed.
	dup, err := rs.FindExact(ctx, []string{"TP53", "tp53", " Tp53 "}, MatchOptions{})
	if err != nil {
		t.Fatalf("FindExact() error = %v", err)
	}
	for _, c := range dup {
		if c.OverlapCount != 1 {
			t.Errorf("%s OverlapCount = %d, want 1", c.GeneSetName, c.OverlapCount)
		}
		if c.OverlapPercentage != 100 {
			t.Errorf("%s OverlapPercentage = %v, want 100", c.GeneSetName, c.OverlapPercentage)
		}
	}
}

func TestFindExactFilters(t *testing.T) {
	rs := openTestStore(t)
	ctx := context.Background()

	t.Run("collections", func(t *testing.T) {
		cands, err := rs.FindExact(ctx, []string{"TP53", "BAX"}, MatchOptions{Collections: []string{"C2"}})
		if err != nil {
			t.Fatalf("FindExact() error = %v", err)
		}
		for _, c := range cands {
			if c.Collection != "C2" {
				t.Errorf("%s Collection = %s, want C2", c.GeneSetName, c.Collection)
			}
		}
		if len(cands) != 2 {
			t.Errorf("FindExact() returned %d candidates, want 2", len(cands))
		}
	})

	t.Run("max set size", func(t *testing.T) {
		cands, err := rs.FindExact(ctx, []string{"TP53"}, MatchOptions{MaxSetSize: 6})
		if err != nil {
			t.Fatalf("FindExact() error = %v", err)
		}
		wantOrder := []string{"KEGG_BREAST_CANCER", "HALLMARK_P53_PATHWAY"}
		if len(cands) != len(wantOrder) {
			t.Fatalf("FindExact() returned %d candidates, want %d", len(cands), len(wantOrder))
		}
		for i, want := range wantOrder {
			if cands[i].GeneSetName != want {
				t.Errorf("cands[%d].GeneSetName = %s, want %s", i, cands[i].GeneSetName, want)
			}
		}
	})

	t.Run("min set size", func(t *testing.T) {
		cands, err := rs.FindExact(ctx, []string{"TP53"}, MatchOptions{MinSetSize: 6})
		if err != nil {
			t.Fatalf("FindExact() error = %v", err)
		}
		for _, c := range cands {
			if c.GeneSetSize < 6 {
				t.Errorf("%s GeneSetSize = %d, want >= 6", c.GeneSetName, c.GeneSetSize)
			}
		}
		if len(cands) != 3 {
			t.Errorf("FindExact() returned %d candidates, want 3", len(cands))
		}
	})

	t.Run("limit", func(t *testing.T) {
		cands, err := rs.FindExact(ctx, []string{"TP53", "BAX", "CASP3"}, MatchOptions{Limit: 2})
		if err != nil {
			t.Fatalf("FindExact() error = %v", err)
		}
		if len(cands) != 2 {
			t.Fatalf("FindExact() returned %d candidates, want 2", len(cands))
		}
		if cands[0].GeneSetName != "HALLMARK_APOPTOSIS" {
			t.Errorf("cands[0].GeneSetName = %s, want HALLMARK_APOPTOSIS", cands[0].GeneSetName)
		}
	})
}

func TestFindExactNoMatches(t *testing.T) {
	rs := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		genes []string
	}{
		{"unknown symbols", []string{"NOSUCHGENE1", "NOSUCHGENE2"}},
		{"empty list", nil},
		{"blank tokens", []string{"", "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands, err := rs.FindExact(ctx, tt.genes, MatchOptions{})
			if err != nil {
				t.Fatalf("FindExact() error = %v", err)
			}
			if len(cands) != 0 {
				t.Errorf("FindExact() = %+v, want none", cands)
			}
		})
	}
}

func TestReferenceStoreMouseCasing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mouse.db")
	writeStore(t, path, mouseFixture())

	ctx := context.Background()
	rs, err := OpenReferenceStore(ctx, path, SpeciesMouse, NopLogger())
	if err != nil {
		t.Fatalf("OpenReferenceStore() error = %v", err)
	}
	defer rs.Close()

	// Canonical upper-case queries must match capitalized stored symbols,
	// and matched genes come back in the stored casing.
	cands, err := rs.FindExact(ctx, []string{"TRP53", "BAX"}, MatchOptions{})
	if err != nil {
		t.Fatalf("FindExact() error = %v", err)
	}
	wantOrder := []string{"HALLMARK_P53_PATHWAY", "HALLMARK_APOPTOSIS"}
	if len(cands) != len(wantOrder) {
		t.Fatalf("FindExact() returned %d candidates, want %d", len(cands), len(wantOrder))
	}
	for i, want := range wantOrder {
		if cands[i].GeneSetName != want {
			t.Errorf("cands[%d].GeneSetName = %s, want %s", i, cands[i].GeneSetName, want)
		}
		if cands[i].OverlapCount != 2 {
			t.Errorf("cands[%d].OverlapCount = %d, want 2", i, cands[i].OverlapCount)
		}
		if cands[i].Species != SpeciesMouse {
			t.Errorf("cands[%d].Species = %v, want mouse", i, cands[i].Species)
		}
	}
	if want := []string{"Bax", "Trp53"}; !reflect.DeepEqual(cands[0].MatchedGenes, want) {
		t.Errorf("MatchedGenes = %v, want %v", cands[0].MatchedGenes, want)
	}
}

func TestFuzzyMatches(t *testing.T) {
	rs := openTestStore(t)
	ctx := context.Background()

	matches, err := rs.FuzzyMatches(ctx, []string{"TP5", "BRCA1", "QQQQQQ"}, 80, 5)
	if err != nil {
		t.Fatalf("FuzzyMatches() error = %v", err)
	}

	if want := []string{"TP53"}; !reflect.DeepEqual(matches["TP5"], want) {
		t.Errorf("matches[TP5] = %v, want %v", matches["TP5"], want)
	}
	// Exact hit first, then the one-substitution neighbor at exactly 80.
	if want := []string{"BRCA1", "BRCA2"}; !reflect.DeepEqual(matches["BRCA1"], want) {
		t.Errorf("matches[BRCA1] = %v, want %v", matches["BRCA1"], want)
	}
	if _, ok := matches["QQQQQQ"]; ok {
		t.Errorf("matches[QQQQQQ] = %v, want absent", matches["QQQQQQ"])
	}

	t.Run("tighter threshold", func(t *testing.T) {
		matches, err := rs.FuzzyMatches(ctx, []string{"BRCA1"}, 90, 5)
		if err != nil {
			t.Fatalf("FuzzyMatches() error = %v", err)
		}
		if want := []string{"BRCA1"}; !reflect.DeepEqual(matches["BRCA1"], want) {
			t.Errorf("matches[BRCA1] = %v, want %v", matches["BRCA1"], want)
		}
	})

	t.Run("limit", func(t *testing.T) {
		matches, err := rs.FuzzyMatches(ctx, []string{"BRCA1"}, 80, 1)
		if err != nil {
			t.Fatalf("FuzzyMatches() error = %v", err)
		}
		if want := []string{"BRCA1"}; !reflect.DeepEqual(matches["BRCA1"], want) {
			t.Errorf("matches[BRCA1] = %v, want %v", matches["BRCA1"], want)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		matches, err := rs.FuzzyMatches(ctx, nil, 80, 5)
		if err != nil {
			t.Fatalf("FuzzyMatches() error = %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("FuzzyMatches(nil) = %v, want empty", matches)
		}
	})
}

func TestVocabulary(t *testing.T) {
	rs := openTestStore(t)

	vocab, err := rs.Vocabulary(context.Background())
	if err != nil {
		t.Fatalf("Vocabulary() error = %v", err)
	}
	if len(vocab) != 28 {
		t.Errorf("Vocabulary() returned %d symbols, want 28", len(vocab))
	}
	if !sort.StringsAreSorted(vocab) {
		t.Errorf("Vocabulary() not sorted: %v", vocab)
	}
	seen := make(map[string]bool, len(vocab))
	for _, s := range vocab {
		if seen[s] {
			t.Errorf("Vocabulary() has duplicate %s", s)
		}
		seen[s] = true
	}
	if !seen["TP53"] || !seen["BRCA1"] {
		t.Errorf("Vocabulary() missing expected symbols: %v", vocab)
	}
}

func TestSetDetails(t *testing.T) {
	rs := openTestStore(t)
	ctx := context.Background()

	d, err := rs.SetDetails(ctx, "HALLMARK_APOPTOSIS")
	if err != nil {
		t.Fatalf("SetDetails() error = %v", err)
	}
	if d.StandardName != "HALLMARK_APOPTOSIS" {
		t.Errorf("StandardName = %s", d.StandardName)
	}
	if d.Collection != "H" {
		t.Errorf("Collection = %s, want H", d.Collection)
	}
	if d.DescriptionBrief != "Genes mediating programmed cell death" {
		t.Errorf("DescriptionBrief = %q", d.DescriptionBrief)
	}
	if d.ExternalURL != "https://example.org/apoptosis" {
		t.Errorf("ExternalURL = %q", d.ExternalURL)
	}
	if d.Species != SpeciesHuman {
		t.Errorf("Species = %v, want human", d.Species)
	}
	wantGenes := []string{"BAX", "BCL2", "CASP3", "CASP8", "CASP9", "FAS", "PMAIP1", "TP53"}
	if !reflect.DeepEqual(d.Genes, wantGenes) {
		t.Errorf("Genes = %v, want %v", d.Genes, wantGenes)
	}
	if d.GeneCount != 8 {
		t.Errorf("GeneCount = %d, want 8", d.GeneCount)
	}

	t.Run("no details row", func(t *testing.T) {
		d, err := rs.SetDetails(ctx, "KEGG_BREAST_CANCER")
		if err != nil {
			t.Fatalf("SetDetails() error = %v", err)
		}
		if d.DescriptionBrief != "" || d.ExternalURL != "" {
			t.Errorf("details = %q, %q, want empty", d.DescriptionBrief, d.ExternalURL)
		}
		if d.GeneCount != 5 {
			t.Errorf("GeneCount = %d, want 5", d.GeneCount)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := rs.SetDetails(ctx, "NO_SUCH_SET")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("SetDetails() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSetMembers(t *testing.T) {
	rs := openTestStore(t)

	members, err := rs.SetMembers(context.Background(),
		[]string{"HALLMARK_APOPTOSIS", "KEGG_BREAST_CANCER", "NO_SUCH_SET"})
	if err != nil {
		t.Fatalf("SetMembers() error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("SetMembers() returned %d sets, want 2: %v", len(members), members)
	}
	if want := []string{"BRCA1", "BRCA2", "EGFR", "PTEN", "TP53"}; !reflect.DeepEqual(members["KEGG_BREAST_CANCER"], want) {
		t.Errorf("members[KEGG_BREAST_CANCER] = %v, want %v", members["KEGG_BREAST_CANCER"], want)
	}
	if _, ok := members["NO_SUCH_SET"]; ok {
		t.Error("members[NO_SUCH_SET] present, want absent")
	}
}

func TestReferenceStoreStats(t *testing.T) {
	rs := openTestStore(t)

	stats, err := rs.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Species != SpeciesHuman {
		t.Errorf("Species = %v, want human", stats.Species)
	}
	if stats.GeneSets != 5 {
		t.Errorf("GeneSets = %d, want 5", stats.GeneSets)
	}
	if stats.Symbols != 28 {
		t.Errorf("Symbols = %d, want 28", stats.Symbols)
	}
	if stats.Memberships != 32 {
		t.Errorf("Memberships = %d, want 32", stats.Memberships)
	}
	if stats.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want > 0", stats.SizeBytes)
	}
}

func TestReferenceStoreClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "human.db")
	writeStore(t, path, humanFixture())

	ctx := context.Background()
	rs, err := OpenReferenceStore(ctx, path, SpeciesHuman, NopLogger())
	if err != nil {
		t.Fatalf("OpenReferenceStore() error = %v", err)
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Closing twice is a no-op.
	if err := rs.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := rs.FindExact(ctx, []string{"TP53"}, MatchOptions{}); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("FindExact() after close error = %v, want ErrStoreClosed", err)
	}
	if _, err := rs.FuzzyMatches(ctx, []string{"TP53"}, 80, 5); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("FuzzyMatches() after close error = %v, want ErrStoreClosed", err)
	}
	if _, err := rs.SetDetails(ctx, "HALLMARK_APOPTOSIS"); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("SetDetails() after close error = %v, want ErrStoreClosed", err)
	}
	if _, err := rs.Stats(ctx); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Stats() after close error = %v, want ErrStoreClosed", err)
	}
}
