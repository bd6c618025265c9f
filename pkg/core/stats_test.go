package core

import (
	"math"
	"testing"
)

func TestEnrichmentStats(t *testing.T) {
	tests := []struct {
		name         string
		overlap      int
		geneSetSize  int
		querySize    int
		universeSize int
		wantP        float64
		wantOdds     float64
		wantOddsNil  bool
	}{
		{
			// P[X >= 2] for N=10, K=5, n=4 is 155/210.
			name:         "small exact tail",
			overlap:      2,
			geneSetSize:  5,
			querySize:    4,
			universeSize: 10,
			wantP:        155.0 / 210.0,
			wantOdds:     1.0,
		},
		{
			// P[X >= 2] for N=20, K=5, n=4 is 1205/4845.
			name:         "wider universe",
			overlap:      2,
			geneSetSize:  5,
			querySize:    4,
			universeSize: 20,
			wantP:        1205.0 / 4845.0,
			wantOdds:     26.0 / 6.0,
		},
		{
			name:         "zero overlap",
			overlap:      0,
			geneSetSize:  5,
			querySize:    4,
			universeSize: 10,
			wantP:        1.0,
			wantOdds:     0.0,
		},
		{
			// Full overlap empties the query-only cell.
			name:         "query fully contained",
			overlap:      3,
			geneSetSize:  5,
			querySize:    3,
			universeSize: 10,
			wantP:        10.0 / 120.0,
			wantOddsNil:  true,
		},
		{
			// Query plus set exceed the universe, so some overlap is forced.
			name:         "forced overlap",
			overlap:      1,
			geneSetSize:  5,
			querySize:    6,
			universeSize: 10,
			wantP:        1.0,
			wantOddsNil:  true,
		},
		{
			name:         "set covers universe",
			overlap:      2,
			geneSetSize:  20,
			querySize:    4,
			universeSize: 10,
			wantP:        1.0,
			wantOdds:     1.0,
		},
		{
			name:         "overlap beyond set size",
			overlap:      6,
			geneSetSize:  5,
			querySize:    10,
			universeSize: 20,
			wantP:        0.0,
			wantOddsNil:  true,
		},
		{
			name:         "zero universe",
			overlap:      1,
			geneSetSize:  5,
			querySize:    4,
			universeSize: 0,
			wantP:        1.0,
			wantOdds:     1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, odds := EnrichmentStats(tt.overlap, tt.geneSetSize, tt.querySize, tt.universeSize)
			if math.Abs(p-tt.wantP) > 1e-9 {
				t.Errorf("EnrichmentStats() p = %v, want %v", p, tt.wantP)
			}
			if tt.wantOddsNil {
				if odds != nil {
					t.Errorf("EnrichmentStats() odds = %v, want nil", *odds)
				}
				return
			}
			if odds == nil {
				t.Fatalf("EnrichmentStats() odds = nil, want %v", tt.wantOdds)
			}
			if math.Abs(*odds-tt.wantOdds) > 1e-9 {
				t.Errorf("EnrichmentStats() odds = %v, want %v", *odds, tt.wantOdds)
			}
		})
	}
}

func TestEnrichmentStatsGenomeScale(t *testing.T) {
	p, odds := EnrichmentStats(5, 100, 50, 20000)
	if p < 0 || p > 1 {
		t.Errorf("EnrichmentStats() p = %v, want within [0, 1]", p)
	}
	if p > 1e-4 {
		t.Errorf("EnrichmentStats() p = %v, want strong enrichment below 1e-4", p)
	}
	if odds == nil {
		t.Fatal("EnrichmentStats() odds = nil, want a value")
	}
	want := (5.0 * 19855.0) / (45.0 * 95.0)
	if math.Abs(*odds-want) > 1e-9 {
		t.Errorf("EnrichmentStats() odds = %v, want %v", *odds, want)
	}
}

func TestEnrichmentStatsBounded(t *testing.T) {
	// Sweep small parameter grids; every p must stay within [0, 1].
	for universe := 1; universe <= 12; universe++ {
		for setSize := 0; setSize <= universe; setSize++ {
			for sample := 0; sample <= universe; sample++ {
				for overlap := 0; overlap <= sample; overlap++ {
					p, _ := EnrichmentStats(overlap, setSize, sample, universe)
					if p < 0 || p > 1 || math.IsNaN(p) {
						t.Fatalf("EnrichmentStats(%d, %d, %d, %d) p = %v, want within [0, 1]",
							overlap, setSize, sample, universe, p)
					}
				}
			}
		}
	}
}

func TestEnrichmentStatsMonotoneInOverlap(t *testing.T) {
	// A larger overlap can only make the tail smaller.
	prev := 2.0
	for overlap := 0; overlap <= 10; overlap++ {
		p, _ := EnrichmentStats(overlap, 40, 10, 200)
		if p > prev+1e-12 {
			t.Errorf("p-value increased with overlap: p(%d) = %v, p(%d) = %v",
				overlap, p, overlap-1, prev)
		}
		prev = p
	}
}
