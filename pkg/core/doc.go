// Package core provides the gene set enrichment engine for enrichdb.
//
// It matches lists of gene symbols against SQLite reference stores of
// curated gene sets, scores each overlapping set with a hypergeometric
// test, corrects the p-values for multiple testing, and returns ranked,
// annotated results.
//
// # Key Components
//
//   - Engine: The main entry point, orchestrating the full search pipeline and owning the optional history store.
//   - ReferenceStore: A read-only, per-request handle on one species' gene set database in the MSigDB SQLite layout.
//   - HistoryStore: Persists searches and their ranked results for later listing and replay.
//   - StoreBuilder: Writes reference stores from GMT exports, also used to build test fixtures.
//   - DetectSpecies: Classifies queries as human or mouse from symbol casing conventions.
//   - EnrichmentStats / BenjaminiHochberg / RankCandidates: The scoring, correction, and ranking stages, usable standalone.
//
// # Observability
//
// The engine supports pluggable structured logging through the Logger
// interface; diagnostics go to stderr by default and never mix into
// result output.
package core
