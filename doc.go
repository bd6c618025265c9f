// Package enrichdb provides a lightweight, embeddable gene set enrichment engine for Go bioinformatics projects.
//
// enrichdb is a 100% pure Go library for matching gene symbol lists against curated gene set
// catalogs. Built on SQLite using modernc.org/sqlite (NO CGO REQUIRED!), it provides exact and
// fuzzy symbol matching, hypergeometric enrichment scoring, multiple-testing correction, and
// query history in plain database files.
//
// # Key Features
//
//   - 🧬 MSigDB-Ready - Reads the MSigDB SQLite export layout directly; GMT import and export included.
//   - 🔍 Fuzzy Matching - Catch typos and close symbol variants with a normalized edit-similarity ratio.
//   - 🐭 Species Aware - Detects human vs mouse queries from symbol casing, or searches both at once.
//   - 📊 Real Statistics - One-sided hypergeometric p-values with Benjamini-Hochberg correction and odds ratios.
//   - 🕘 Query History - Persist every search with its ranked results for listing and replay.
//   - 🔧 100% Pure Go - Easy cross-compilation and zero-dependency deployment.
//
// # Quick Start
//
//	import (
//	    "context"
//	    "fmt"
//
//	    "github.com/liliang-cn/enrichdb/pkg/enrichdb"
//	)
//
//	func main() {
//	    // 1. Open the engine over the reference stores
//	    config := enrichdb.DefaultConfig("msigdb_human.db", "msigdb_mouse.db")
//	    db, _ := enrichdb.Open(config)
//	    defer db.Close()
//
//	    // 2. Use the Quick interface for simple operations
//	    ctx := context.Background()
//	    quick := db.Quick()
//
//	    // Search with automatic species detection
//	    resp, _ := quick.Search(ctx, "TP53 BRCA1 BRCA2 ATM CHEK2")
//	    for _, r := range resp.Results {
//	        fmt.Printf("%d. %s adj_p=%.2g overlap=%d/%d\n",
//	            r.Rank, r.GeneSetName, r.AdjustedPValue, r.OverlapCount, r.GeneSetSize)
//	    }
//	}
//
// # Fuzzy Search
//
// Queries with typos can be expanded against the store vocabulary before matching:
//
//	resp, err := quick.SearchFuzzy(ctx, "TP53 BRAC1")
//
// or with full control over the request:
//
//	import "github.com/liliang-cn/enrichdb/pkg/core"
//
//	resp, err := db.Search(ctx, core.SearchRequest{
//	    Query:          "TP53 BRAC1",
//	    SearchType:     core.SearchBoth,
//	    Collections:    []string{"H", "C2"},
//	    FuzzyThreshold: 85,
//	})
//
// # Query History
//
// Enable history to persist searches and replay their ranked results:
//
//	db, _ := enrichdb.Open(config, enrichdb.WithHistory("history.db"))
//
//	records, _ := db.History(ctx, "", 20)
//	results, _ := db.HistoryResults(ctx, records[0].ID)
//
// # Building Reference Stores
//
// Stores are plain SQLite files in the MSigDB export layout. Materialize one
// from a public GMT release with the CLI:
//
//	enrichdb import h.all.v2023.2.Hs.symbols.gmt --species human --collection H
//	enrichdb search TP53 BAX CASP3 --species human
//
// or programmatically with core.NewStoreBuilder and core.ReferenceStore.Export
// for the reverse direction.
//
// # Advanced Configuration
//
// For deeper control (universe size, thresholds, set size guards, logger), use
// core.Config with core.NewEngine:
//
//	cfg := core.DefaultConfig()
//	cfg.HumanStorePath = "msigdb_human.db"
//	cfg.UniverseSize = 25000
//	cfg.MinGeneSetSize = 5
//	cfg.MaxGeneSetSize = 2000
//
//	engine, err := core.NewEngine(cfg)
//
// # Observability
//
// enrichdb supports structured logging via core.Config.Logger; diagnostics go
// to stderr and never mix into result output.
//
// For more detailed examples, see the examples/ directory.
package enrichdb
