package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/memdex/merchpipe/internal/config"
	"github.com/memdex/merchpipe/internal/crawl"
)

var (
	cfgFile   string
	verbose   bool
	baseURL   string
	dataDir   string
	assetsDir string
	headful   bool
	stealth   bool
	paths     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "merchpipe",
		Short: "MerchPipe — storefront catalog extraction pipeline",
		Long: `MerchPipe crawls a merch storefront with a headless browser,
extracts every product into raw records, and normalizes them into the
canonical catalog JSON consumed by the shop UI.

Phases:
  • extract — render listing pages, enumerate products, visit each
    product page, save raw records and product images
  • cleanup — normalize raw records into the canonical catalog
    (prices, descriptions, categories, images, sort order)
  • run     — both phases back to back`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// extractCmd creates the "extract" subcommand.
func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Crawl the storefront and save raw product records",
		RunE:  runExtract,
	}
	addCrawlFlags(cmd)
	return cmd
}

// cleanupCmd creates the "cleanup" subcommand.
func cleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Normalize raw records into the canonical catalog",
		RunE:  runCleanup,
	}
	cmd.Flags().StringVarP(&dataDir, "data-dir", "o", "", "data artifact directory")
	return cmd
}

// runCmd creates the "run" subcommand executing both phases.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract and normalize in one invocation",
		RunE:  runAll,
	}
	addCrawlFlags(cmd)
	return cmd
}

func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&baseURL, "base-url", "", "storefront base URL")
	cmd.Flags().StringVar(&paths, "category-paths", "", "comma-separated listing page paths")
	cmd.Flags().StringVarP(&dataDir, "data-dir", "o", "", "data artifact directory")
	cmd.Flags().StringVar(&assetsDir, "assets-dir", "", "product image directory")
	cmd.Flags().BoolVar(&headful, "headful", false, "run the browser with a visible window")
	cmd.Flags().BoolVar(&stealth, "stealth", false, "enable stealth page evasions")
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(logger)
	defer cancel()

	pipeline := crawl.New(cfg, logger)
	summary, err := pipeline.Extract(ctx)
	if err != nil {
		return err
	}
	printExtractSummary(summary, pipeline.RawPath())
	return nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(logger)
	defer cancel()

	pipeline := crawl.New(cfg, logger)
	summary, err := pipeline.Cleanup(ctx)
	if err != nil {
		return err
	}
	printCleanupSummary(summary, pipeline.CatalogPath())
	return nil
}

func runAll(cmd *cobra.Command, args []string) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(logger)
	defer cancel()

	pipeline := crawl.New(cfg, logger)
	extracted, cleaned, err := pipeline.Run(ctx)
	if extracted != nil {
		printExtractSummary(extracted, pipeline.RawPath())
	}
	if err != nil {
		return err
	}
	printCleanupSummary(cleaned, pipeline.CatalogPath())
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("MerchPipe %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Site:\n")
			fmt.Printf("  Base URL:           %s\n", cfg.Site.BaseURL)
			fmt.Printf("  Category Paths:     %s\n", strings.Join(cfg.Site.CategoryPaths, ", "))
			fmt.Printf("  Product Marker:     %s\n", cfg.Site.ProductPathMarker)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:           %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:            %v\n", cfg.Browser.Stealth)
			fmt.Printf("  Viewport:           %dx%d\n", cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
			fmt.Printf("  Navigation Timeout: %s\n", cfg.Browser.NavigationTimeout)
			fmt.Printf("  Max Scrolls:        %d\n", cfg.Browser.MaxScrolls)
			fmt.Printf("\nAssets:\n")
			fmt.Printf("  Directory:          %s\n", cfg.Assets.Dir)
			fmt.Printf("  Concurrency:        %d\n", cfg.Assets.Concurrency)
			fmt.Printf("  Max Redirects:      %d\n", cfg.Assets.MaxRedirects)
			fmt.Printf("\nOutput:\n")
			fmt.Printf("  Data Directory:     %s\n", cfg.Output.DataDir)
			fmt.Printf("  Raw File:           %s\n", cfg.Output.RawFile)
			fmt.Printf("  Catalog File:       %s\n", cfg.Output.CatalogFile)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Mongo Enabled:      %v\n", cfg.Storage.Mongo.Enabled)
			fmt.Printf("  Mongo Collection:   %s.%s\n", cfg.Storage.Mongo.Database, cfg.Storage.Mongo.Collection)
			return nil
		},
	}
}

// setup builds the logger and the validated, override-applied config.
func setup() (*slog.Logger, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return setupLogger(&cfg.Logging), cfg, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()
	return ctx, cancel
}

func printExtractSummary(s *crawl.ExtractSummary, rawPath string) {
	fmt.Printf("\n✅ Extraction complete in %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Printf("   Products:  %d found, %d valid, %d failed\n", s.CardsFound, s.Valid, s.Failed)
	fmt.Printf("   Images:    %d saved, %d failed\n", s.ImagesSaved, s.ImagesFailed)
	fmt.Printf("   Output:    %s\n", rawPath)
}

func printCleanupSummary(s *crawl.CleanupSummary, catalogPath string) {
	fmt.Printf("\n✅ Cleanup complete in %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Printf("   Catalog:   %d of %d records\n", s.Catalog, s.Input)
	fmt.Printf("   Output:    %s\n", catalogPath)
	fmt.Println("\nCategories:")
	for _, c := range s.Categories {
		fmt.Printf("  %s: %d\n", c.Category, c.Count)
	}
}

// setupLogger creates a structured logger honoring the logging config.
// The --verbose flag wins over the configured level.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if baseURL != "" {
		cfg.Site.BaseURL = baseURL
	}
	if paths != "" {
		var categoryPaths []string
		for _, p := range strings.Split(paths, ",") {
			if p = strings.TrimSpace(p); p != "" {
				categoryPaths = append(categoryPaths, p)
			}
		}
		cfg.Site.CategoryPaths = categoryPaths
	}
	if dataDir != "" {
		cfg.Output.DataDir = dataDir
	}
	if assetsDir != "" {
		cfg.Assets.Dir = assetsDir
	}
	if headful {
		cfg.Browser.Headless = false
	}
	if stealth {
		cfg.Browser.Stealth = true
	}
}
