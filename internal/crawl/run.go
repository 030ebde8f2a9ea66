package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/memdex/merchpipe/internal/assets"
	"github.com/memdex/merchpipe/internal/browser"
	"github.com/memdex/merchpipe/internal/cleanup"
	"github.com/memdex/merchpipe/internal/config"
	"github.com/memdex/merchpipe/internal/extract"
	"github.com/memdex/merchpipe/internal/storage"
	"github.com/memdex/merchpipe/internal/types"
)

// ExtractSummary reports the outcome of one crawl phase so an operator
// can spot products that need manual follow-up.
type ExtractSummary struct {
	CardsFound   int
	Extracted    int
	Valid        int
	Failed       int
	ImagesSaved  int
	ImagesFailed int
	Elapsed      time.Duration
}

// CleanupSummary reports the outcome of one normalization phase.
type CleanupSummary struct {
	Input      int
	Catalog    int
	Categories []cleanup.CategoryCount
	Elapsed    time.Duration
}

// Pipeline sequences the crawl phases: category extraction, per-product
// detail extraction, raw persistence, image downloads, normalization.
// Browser-driven work is strictly sequential on one session; only the
// image downloads fan out.
type Pipeline struct {
	cfg    *config.Config
	files  *storage.Files
	logger *slog.Logger
}

// New creates the crawl pipeline.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		files: storage.NewFiles(
			cfg.Output.DataDir,
			cfg.Output.RawFile,
			cfg.Output.FailedFile,
			cfg.Output.CatalogFile,
			logger,
		),
		logger: logger.With("component", "pipeline"),
	}
}

// Extract runs the browser-driven crawl: enumerate cards from every
// configured listing page, visit each product page, merge, persist the
// raw and failed record files, and download product images. Per-page
// and per-product failures are absorbed; only session startup and
// artifact writes are fatal.
func (p *Pipeline) Extract(ctx context.Context) (*ExtractSummary, error) {
	start := time.Now()

	sess, err := browser.NewSession(p.cfg, p.logger)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	diag := extract.NewDiagnostics(filepath.Join(p.cfg.Output.DataDir, "diagnostics"), p.logger)
	categories := extract.NewCategoryExtractor(p.cfg, diag, p.logger)
	details := extract.NewDetailExtractor(p.cfg, diag, p.logger)

	var cards []types.RawProductCard
	for _, path := range p.cfg.Site.CategoryPaths {
		listingURL, err := joinURL(p.cfg.Site.BaseURL, path)
		if err != nil {
			p.logger.Error("bad category path", "path", path, "error", err)
			continue
		}
		pageCards, err := categories.Extract(sess, listingURL)
		if err != nil {
			p.logger.Error("listing page failed, skipping", "url", listingURL, "error", err)
			continue
		}
		cards = append(cards, pageCards...)
	}
	cards = extract.DedupCards(cards)
	if len(cards) == 0 {
		return nil, types.ErrNoProductCards
	}
	p.logger.Info("card enumeration complete", "products", len(cards))

	products := make([]types.RawProduct, 0, len(cards))
	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		detail := details.Extract(sess, card.URL)
		products = append(products, types.Merge(card, detail))
	}

	valid, failed := cleanup.FilterValid(products)
	if err := p.files.WriteRaw(valid); err != nil {
		return nil, err
	}
	if err := p.files.WriteFailed(failed); err != nil {
		return nil, err
	}

	fetcher := assets.NewFetcher(p.cfg, p.logger)
	defer fetcher.Close()
	downloader := assets.NewImageDownloader(fetcher, p.cfg.Assets.Dir, p.cfg.Assets.Concurrency, p.logger)
	saved, failedImages := downloader.DownloadAll(ctx, valid)

	summary := &ExtractSummary{
		CardsFound:   len(cards),
		Extracted:    len(products),
		Valid:        len(valid),
		Failed:       len(failed),
		ImagesSaved:  saved,
		ImagesFailed: failedImages,
		Elapsed:      time.Since(start),
	}
	p.logger.Info("extraction complete",
		"cards", summary.CardsFound,
		"valid", summary.Valid,
		"failed", summary.Failed,
		"images_saved", summary.ImagesSaved,
		"elapsed", summary.Elapsed,
	)
	return summary, nil
}

// Cleanup runs the normalization phase: read the raw extraction file,
// produce the canonical catalog, write the catalog file, and publish
// to MongoDB when enabled.
func (p *Pipeline) Cleanup(ctx context.Context) (*CleanupSummary, error) {
	start := time.Now()

	raws, err := p.files.ReadRaw()
	if err != nil {
		return nil, err
	}

	normalizer := cleanup.NewNormalizer(p.logger)
	catalog := normalizer.Normalize(raws)

	if err := p.files.WriteCatalog(catalog); err != nil {
		return nil, err
	}

	if p.cfg.Storage.Mongo.Enabled {
		if err := p.publishCatalog(ctx, catalog); err != nil {
			return nil, err
		}
	}

	summary := &CleanupSummary{
		Input:      len(raws),
		Catalog:    len(catalog),
		Categories: cleanup.CategoryCounts(catalog),
		Elapsed:    time.Since(start),
	}
	p.logger.Info("cleanup complete",
		"input", summary.Input,
		"catalog", summary.Catalog,
		"elapsed", summary.Elapsed,
	)
	return summary, nil
}

// Run executes both phases back to back.
func (p *Pipeline) Run(ctx context.Context) (*ExtractSummary, *CleanupSummary, error) {
	extracted, err := p.Extract(ctx)
	if err != nil {
		return nil, nil, err
	}
	cleaned, err := p.Cleanup(ctx)
	if err != nil {
		return extracted, nil, err
	}
	return extracted, cleaned, nil
}

// CatalogPath exposes the catalog artifact location for run summaries.
func (p *Pipeline) CatalogPath() string { return p.files.CatalogPath() }

// RawPath exposes the raw artifact location for run summaries.
func (p *Pipeline) RawPath() string { return p.files.RawPath() }

func (p *Pipeline) publishCatalog(ctx context.Context, catalog []types.CanonicalProduct) error {
	mongoCfg := p.cfg.Storage.Mongo
	publisher, err := storage.NewCatalogPublisher(mongoCfg.URI, mongoCfg.Database, mongoCfg.Collection, p.logger)
	if err != nil {
		return fmt.Errorf("catalog publisher: %w", err)
	}
	defer publisher.Close()
	return publisher.Publish(ctx, catalog)
}

// joinURL resolves a category path against the site base URL.
func joinURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return u.ResolveReference(ref).String(), nil
}
