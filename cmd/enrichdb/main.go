package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/liliang-cn/enrichdb/internal/gmt"
	"github.com/liliang-cn/enrichdb/pkg/core"
)

var (
	configPath   string
	humanPath    string
	mousePath    string
	historyPath  string
	universeSize int
	minSetSize   int
	maxSetSize   int
	logLevel     string
	verbose      bool
)

// fileConfig mirrors the persistent flags plus the engine tunables that
// only make sense as durable settings. Explicit flags win over the file.
type fileConfig struct {
	HumanStore     string `yaml:"human_store"`
	MouseStore     string `yaml:"mouse_store"`
	History        string `yaml:"history"`
	UniverseSize   int    `yaml:"universe_size"`
	FuzzyThreshold int    `yaml:"fuzzy_threshold"`
	CandidateCap   int    `yaml:"candidate_cap"`
	MinSetSize     int    `yaml:"min_set_size"`
	MaxSetSize     int    `yaml:"max_set_size"`
	LogLevel       string `yaml:"log_level"`
}

var fileCfg fileConfig

var rootCmd = &cobra.Command{
	Use:   "enrichdb",
	Short: "CLI tool for gene set enrichment search",
	Long:  `A command-line interface for searching gene lists against SQLite gene set reference stores.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyFileConfig(cmd)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <genes...>",
	Short: "Search gene symbols against the reference stores",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		speciesStr, _ := cmd.Flags().GetString("species")
		typeStr, _ := cmd.Flags().GetString("type")
		collectionsStr, _ := cmd.Flags().GetString("collections")
		threshold, _ := cmd.Flags().GetInt("fuzzy-threshold")
		userID, _ := cmd.Flags().GetString("user")
		top, _ := cmd.Flags().GetInt("top")

		species, err := parseSpecies(speciesStr)
		if err != nil {
			return err
		}
		searchType := core.SearchType(strings.ToLower(strings.TrimSpace(typeStr)))
		if !searchType.Valid() {
			return fmt.Errorf("invalid search type %q (want exact, fuzzy, or both)", typeStr)
		}

		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		req := core.SearchRequest{
			Query:          strings.Join(args, " "),
			Species:        species,
			SearchType:     searchType,
			Collections:    splitList(collectionsStr),
			UserID:         userID,
			FuzzyThreshold: threshold,
		}

		ctx := context.Background()
		resp, err := engine.Search(ctx, req)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(resp, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Query %s: %s (species: %s, type: %s, universe: %d)\n",
			resp.QueryID, strings.Join(resp.Genes, " "), resp.Species,
			resp.SearchType, engine.Config().UniverseSize)
		if resp.Message != "" {
			fmt.Printf("Note: %s\n", resp.Message)
		}
		fmt.Printf("Found %d enriched gene sets:\n", resp.NumResults)

		results := resp.Results
		if top > 0 && len(results) > top {
			results = results[:top]
		}
		printResults(results)
		return nil
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the known gene set collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		collections := engine.Collections()

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(collections, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Collections (%d):\n", len(collections))
		for _, col := range collections {
			fmt.Printf("  %-3s %s\n", col.Code, col.Name)
			if verbose && col.Description != "" {
				fmt.Printf("      %s\n", col.Description)
			}
		}
		return nil
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details <name>",
	Short: "Show one gene set with its member symbols",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		speciesStr, _ := cmd.Flags().GetString("species")
		species, err := parseSpecies(speciesStr)
		if err != nil {
			return err
		}

		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		ctx := context.Background()
		details, err := engine.GeneSetDetails(ctx, args[0], species)
		if err != nil {
			return fmt.Errorf("failed to get gene set: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(details, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Standard Name: %s\n", details.StandardName)
		if details.SystematicName != "" {
			fmt.Printf("Systematic Name: %s\n", details.SystematicName)
		}
		fmt.Printf("Collection: %s\n", details.Collection)
		fmt.Printf("Species: %s\n", details.Species)
		if details.DescriptionBrief != "" {
			fmt.Printf("Description: %s\n", details.DescriptionBrief)
		}
		if verbose && details.DescriptionFull != "" {
			fmt.Printf("Full Description: %s\n", details.DescriptionFull)
		}
		if details.ExternalURL != "" {
			fmt.Printf("External URL: %s\n", details.ExternalURL)
		}
		fmt.Printf("Genes (%d): %s\n", details.GeneCount, strings.Join(details.Genes, ", "))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List persisted queries, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		ctx := context.Background()
		records, err := engine.History(ctx, userID, limit)
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(records, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Queries (%d):\n", len(records))
		for _, r := range records {
			fmt.Printf("  %s  %s  %-5s  %3d results  %s\n",
				r.CreatedAt.Format("2006-01-02 15:04"), r.ID, r.Species, r.NumResults, r.Query)
			if verbose && r.UserID != "" {
				fmt.Printf("      user: %s\n", r.UserID)
			}
		}
		return nil
	},
}

var historyResultsCmd = &cobra.Command{
	Use:   "results <query-id>",
	Short: "Replay the persisted results of one query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		ctx := context.Background()
		results, err := engine.HistoryResults(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load results: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(results, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Results (%d):\n", len(results))
		printResults(results)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <gmt-file>",
	Short: "Load a GMT gene set file into a reference store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		speciesStr, _ := cmd.Flags().GetString("species")
		collection, _ := cmd.Flags().GetString("collection")
		storePath, _ := cmd.Flags().GetString("store")

		species, err := parseSpecies(speciesStr)
		if err != nil {
			return err
		}
		if species != core.SpeciesHuman && species != core.SpeciesMouse {
			return fmt.Errorf("invalid species %q (want human or mouse)", speciesStr)
		}
		collection = strings.ToUpper(strings.TrimSpace(collection))
		if collection == "" {
			return fmt.Errorf("collection is required")
		}
		if storePath == "" {
			if species == core.SpeciesHuman {
				storePath = humanPath
			} else {
				storePath = mousePath
			}
		}
		if storePath == "" {
			return fmt.Errorf("no store path configured for %s", species)
		}

		sets, err := gmt.ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to parse GMT file: %w", err)
		}

		// public GMT exports carry a URL in the description column
		refs := make([]core.ReferenceSet, 0, len(sets))
		for _, s := range sets {
			ref := core.ReferenceSet{Name: s.Name, Genes: s.Genes}
			if strings.HasPrefix(s.Description, "http://") || strings.HasPrefix(s.Description, "https://") {
				ref.ExternalURL = s.Description
			} else {
				ref.Description = s.Description
			}
			refs = append(refs, ref)
		}

		ctx := context.Background()
		builder, err := core.NewStoreBuilder(ctx, storePath, newLogger())
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		if err := builder.AddSets(ctx, collection, refs); err != nil {
			builder.Close()
			return fmt.Errorf("import failed: %w", err)
		}
		if err := builder.Close(); err != nil {
			return fmt.Errorf("failed to close store: %w", err)
		}

		fmt.Printf("Imported %d gene sets into %s [%s]\n", len(refs), storePath, collection)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a reference store to GMT, JSON, or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		speciesStr, _ := cmd.Flags().GetString("species")
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		collectionsStr, _ := cmd.Flags().GetString("collections")
		storePath, _ := cmd.Flags().GetString("store")

		species, err := parseSpecies(speciesStr)
		if err != nil {
			return err
		}
		if species != core.SpeciesHuman && species != core.SpeciesMouse {
			return fmt.Errorf("invalid species %q (want human or mouse)", speciesStr)
		}
		if storePath == "" {
			if species == core.SpeciesHuman {
				storePath = humanPath
			} else {
				storePath = mousePath
			}
		}

		ctx := context.Background()
		store, err := core.OpenReferenceStore(ctx, storePath, species, newLogger())
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.Close()

		opts := core.ExportOptions{
			Format:      core.ExportFormat(strings.ToLower(strings.TrimSpace(format))),
			Collections: splitList(collectionsStr),
		}

		if out == "" {
			_, err := store.Export(ctx, os.Stdout, opts)
			return err
		}
		stats, err := store.ExportToFile(ctx, out, opts)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d gene sets (%d memberships) to %s\n", stats.GeneSets, stats.Memberships, out)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display reference store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		speciesStr, _ := cmd.Flags().GetString("species")

		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		targets := []core.Species{core.SpeciesHuman, core.SpeciesMouse}
		if speciesStr != "" {
			species, err := parseSpecies(speciesStr)
			if err != nil {
				return err
			}
			if species != core.SpeciesHuman && species != core.SpeciesMouse {
				return fmt.Errorf("invalid species %q (want human or mouse)", speciesStr)
			}
			targets = []core.Species{species}
		}

		ctx := context.Background()
		var all []core.StoreStats
		for _, sp := range targets {
			if engine.Config().StorePath(sp) == "" {
				continue
			}
			stats, err := engine.StoreStats(ctx, sp)
			if err != nil {
				return fmt.Errorf("failed to get stats for %s: %w", sp, err)
			}
			all = append(all, stats)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(all, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		for _, stats := range all {
			fmt.Printf("%s (%s):\n", stats.Species, stats.Path)
			fmt.Printf("  Gene Sets: %d\n", stats.GeneSets)
			fmt.Printf("  Symbols: %d\n", stats.Symbols)
			fmt.Printf("  Memberships: %d\n", stats.Memberships)
			fmt.Printf("  Size: %.2f MB\n", float64(stats.SizeBytes)/(1024*1024))
		}
		return nil
	},
}

// printResults writes ranked results one per line, with detail lines when
// verbose output is on.
func printResults(results []core.GeneSetResult) {
	for _, r := range results {
		marker := ""
		if r.MatchType == core.MatchFuzzy {
			marker = " (fuzzy)"
		}
		fmt.Printf("%d. %s [%s] p=%.3g adj=%.3g overlap %d/%d (%.1f%%)%s\n",
			r.Rank, r.GeneSetName, r.Collection, r.PValue, r.AdjustedPValue,
			r.OverlapCount, r.GeneSetSize, r.OverlapPercentage, marker)
		if verbose {
			if r.OddsRatio != nil {
				fmt.Printf("   Odds Ratio: %.2f\n", *r.OddsRatio)
			}
			fmt.Printf("   Matched: %s\n", strings.Join(r.MatchedGenes, ", "))
			if r.Description != "" {
				fmt.Printf("   %s\n", r.Description)
			}
			if r.MSigDBURL != "" {
				fmt.Printf("   %s\n", r.MSigDBURL)
			}
		}
	}
}

func parseSpecies(s string) (core.Species, error) {
	species := core.Species(strings.ToLower(strings.TrimSpace(s)))
	if species == "" {
		species = core.SpeciesAuto
	}
	if !species.Valid() {
		return "", fmt.Errorf("invalid species %q (want auto, human, mouse, or both)", s)
	}
	return species, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// applyFileConfig loads the YAML config file, if any, and fills in every
// setting whose flag was not set explicitly on the command line.
func applyFileConfig(cmd *cobra.Command) error {
	if configPath == "" {
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	flags := cmd.Root().PersistentFlags()
	if !flags.Changed("human") && fileCfg.HumanStore != "" {
		humanPath = fileCfg.HumanStore
	}
	if !flags.Changed("mouse") && fileCfg.MouseStore != "" {
		mousePath = fileCfg.MouseStore
	}
	if !flags.Changed("history-db") && fileCfg.History != "" {
		historyPath = fileCfg.History
	}
	if !flags.Changed("universe") && fileCfg.UniverseSize > 0 {
		universeSize = fileCfg.UniverseSize
	}
	if !flags.Changed("min-set-size") && fileCfg.MinSetSize > 0 {
		minSetSize = fileCfg.MinSetSize
	}
	if !flags.Changed("max-set-size") && fileCfg.MaxSetSize > 0 {
		maxSetSize = fileCfg.MaxSetSize
	}
	if !flags.Changed("log-level") && fileCfg.LogLevel != "" {
		logLevel = fileCfg.LogLevel
	}
	return nil
}

func newLogger() core.Logger {
	return core.NewStdLogger(core.ParseLogLevel(logLevel))
}

func openEngine() (*core.Engine, error) {
	cfg := core.DefaultConfig()
	cfg.HumanStorePath = humanPath
	cfg.MouseStorePath = mousePath
	cfg.HistoryPath = historyPath
	cfg.Logger = newLogger()
	if universeSize > 0 {
		cfg.UniverseSize = universeSize
	}
	if minSetSize > 0 {
		cfg.MinGeneSetSize = minSetSize
	}
	if maxSetSize > 0 {
		cfg.MaxGeneSetSize = maxSetSize
	}
	if fileCfg.FuzzyThreshold > 0 {
		cfg.FuzzyThreshold = fileCfg.FuzzyThreshold
	}
	if fileCfg.CandidateCap > 0 {
		cfg.CandidateCap = fileCfg.CandidateCap
	}

	engine, err := core.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file path")
	rootCmd.PersistentFlags().StringVar(&humanPath, "human", "msigdb_human.db", "Human reference store path")
	rootCmd.PersistentFlags().StringVar(&mousePath, "mouse", "msigdb_mouse.db", "Mouse reference store path")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history-db", "", "Query history database path (empty disables history)")
	rootCmd.PersistentFlags().IntVar(&universeSize, "universe", 0, "Assumed gene universe size (0 for default)")
	rootCmd.PersistentFlags().IntVar(&minSetSize, "min-set-size", 0, "Minimum gene set size (0 disables)")
	rootCmd.PersistentFlags().IntVar(&maxSetSize, "max-set-size", 0, "Maximum gene set size (0 disables)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Search command
	searchCmd.Flags().StringP("species", "s", "auto", "Species (auto/human/mouse/both)")
	searchCmd.Flags().StringP("type", "t", "exact", "Search type (exact/fuzzy/both)")
	searchCmd.Flags().String("collections", "", "Collection codes (comma-separated, empty for all)")
	searchCmd.Flags().Int("fuzzy-threshold", 0, "Similarity cutoff 0-100 for this search (0 for default)")
	searchCmd.Flags().String("user", "", "User ID recorded in history")
	searchCmd.Flags().Int("top", 0, "Show only the top N results (0 for all)")
	searchCmd.Flags().Bool("json", false, "Output as JSON")

	// Collections command
	collectionsCmd.Flags().Bool("json", false, "Output as JSON")

	// Details command
	detailsCmd.Flags().StringP("species", "s", "human", "Species (human/mouse)")
	detailsCmd.Flags().Bool("json", false, "Output as JSON")

	// History commands
	historyCmd.AddCommand(historyResultsCmd)
	historyCmd.Flags().String("user", "", "Only list queries from this user")
	historyCmd.Flags().Int("limit", 20, "Maximum queries to list")
	historyCmd.Flags().Bool("json", false, "Output as JSON")
	historyResultsCmd.Flags().Bool("json", false, "Output as JSON")

	// Import command
	importCmd.Flags().StringP("species", "s", "", "Target species (human/mouse)")
	importCmd.Flags().String("collection", "", "Collection code for the imported sets")
	importCmd.Flags().String("store", "", "Store path override (defaults to the species' configured store)")
	importCmd.MarkFlagRequired("species")
	importCmd.MarkFlagRequired("collection")

	// Export command
	exportCmd.Flags().StringP("species", "s", "", "Source species (human/mouse)")
	exportCmd.Flags().StringP("format", "f", "gmt", "Output format (gmt/json/csv)")
	exportCmd.Flags().StringP("out", "o", "", "Output file (empty for stdout)")
	exportCmd.Flags().String("collections", "", "Collection codes to export (comma-separated, empty for all)")
	exportCmd.Flags().String("store", "", "Store path override (defaults to the species' configured store)")
	exportCmd.MarkFlagRequired("species")

	// Stats command
	statsCmd.Flags().StringP("species", "s", "", "Species (human/mouse, empty for all configured)")
	statsCmd.Flags().Bool("json", false, "Output as JSON")

	// Add all commands to root
	rootCmd.AddCommand(
		searchCmd,
		collectionsCmd,
		detailsCmd,
		historyCmd,
		importCmd,
		exportCmd,
		statsCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
