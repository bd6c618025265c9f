package core

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseGeneQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "comma separated",
			query: "TP53,BRCA1,EGFR",
			want:  []string{"TP53", "BRCA1", "EGFR"},
		},
		{
			name:  "whitespace separated",
			query: "TP53 BRCA1\tEGFR",
			want:  []string{"TP53", "BRCA1", "EGFR"},
		},
		{
			name:  "mixed separators",
			query: "TP53, BRCA1;EGFR\nMYC",
			want:  []string{"TP53", "BRCA1", "EGFR", "MYC"},
		},
		{
			name:  "repeated separators",
			query: "TP53,,;  BRCA1",
			want:  []string{"TP53", "BRCA1"},
		},
		{
			name:  "leading and trailing separators",
			query: " ,TP53, BRCA1; ",
			want:  []string{"TP53", "BRCA1"},
		},
		{
			name:  "case insensitive dedupe keeps first form",
			query: "tp53 TP53 Tp53 BRCA1",
			want:  []string{"tp53", "BRCA1"},
		},
		{
			name:  "empty query",
			query: "",
			want:  []string{},
		},
		{
			name:  "separators only",
			query: " ,;\t\n",
			want:  []string{},
		},
		{
			name:  "single gene",
			query: "TP53",
			want:  []string{"TP53"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseGeneQuery(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseGeneQuery(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseGeneQueryNeverNil(t *testing.T) {
	if got := ParseGeneQuery(""); got == nil {
		t.Error("ParseGeneQuery(\"\") = nil, want empty slice")
	}
}

func TestParseGeneQueryStable(t *testing.T) {
	// Re-parsing the joined output must not change the token list.
	first := ParseGeneQuery("TP53, brca1;EGFR egfr\tMYC")
	second := ParseGeneQuery(strings.Join(first, " "))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-parse changed tokens: first %v, second %v", first, second)
	}
}

func TestSplitGeneTokens(t *testing.T) {
	raw, canonical := splitGeneTokens("Trp53, bax; TRP53")
	wantRaw := []string{"Trp53", "bax"}
	wantCanonical := []string{"TRP53", "BAX"}
	if !reflect.DeepEqual(raw, wantRaw) {
		t.Errorf("splitGeneTokens() raw = %v, want %v", raw, wantRaw)
	}
	if !reflect.DeepEqual(canonical, wantCanonical) {
		t.Errorf("splitGeneTokens() canonical = %v, want %v", canonical, wantCanonical)
	}
	if len(raw) != len(canonical) {
		t.Errorf("splitGeneTokens() slices not aligned: %d raw, %d canonical", len(raw), len(canonical))
	}
}
