package extract

import (
	"log/slog"
	"strings"

	"github.com/memdex/merchpipe/internal/browser"
	"github.com/memdex/merchpipe/internal/config"
	"github.com/memdex/merchpipe/internal/types"
)

// Selectors that indicate the listing grid has rendered, most specific
// first. The markup varies between layout variants and CDN timing, so
// readiness probes a priority list before giving up to a timed settle.
var listingReadinessSelectors = []string{
	`[data-hook="product-list-wrapper"]`,
	`[data-hook="product-list"]`,
	`.gallery-item-container`,
	`[class*="ProductItem"]`,
	`[class*="product-item"]`,
	`[data-hook="gallery-item-image-container"]`,
	`li[data-hook]`,
	`.grid-item`,
}

// CategoryExtractor enumerates product cards from listing pages.
type CategoryExtractor struct {
	cfg    *config.Config
	diag   *Diagnostics
	logger *slog.Logger
}

// NewCategoryExtractor creates a category extractor.
func NewCategoryExtractor(cfg *config.Config, diag *Diagnostics, logger *slog.Logger) *CategoryExtractor {
	return &CategoryExtractor{
		cfg:    cfg,
		diag:   diag,
		logger: logger.With("component", "category_extractor"),
	}
}

// Extract navigates to one listing page, exhausts lazy loading, and
// runs the card strategies over the rendered snapshot. A navigation
// failure returns an empty contribution along with the error; the
// caller logs it and moves on.
func (e *CategoryExtractor) Extract(sess *browser.Session, listingURL string) ([]types.RawProductCard, error) {
	e.logger.Info("extracting category", "url", listingURL)

	if err := sess.Navigate(listingURL); err != nil {
		e.diag.PageDump(sess, diagName(listingURL))
		return nil, err
	}

	matched, ok := sess.AwaitReadiness(listingReadinessSelectors, e.cfg.Browser.SelectorWait)
	if ok {
		e.logger.Debug("listing grid ready", "selector", matched)
	} else {
		e.logger.Warn("no grid selector matched, extracting after settle", "url", listingURL)
	}

	e.diag.Screenshot(sess, diagName(listingURL))

	sess.ExhaustLazyLoad()

	markup, err := sess.HTML()
	if err != nil {
		return nil, err
	}
	snap, err := NewSnapshot(markup, listingURL, e.cfg.Site.ProductPathMarker)
	if err != nil {
		return nil, err
	}

	cards, strategy := CardsFromSnapshot(snap)
	if len(cards) == 0 {
		e.logger.Warn("no product cards found", "url", listingURL)
		e.diag.PageDump(sess, diagName(listingURL)+"-debug")
		return nil, nil
	}

	e.logger.Info("category extracted",
		"url", listingURL,
		"cards", len(cards),
		"strategy", strategy,
	)
	return cards, nil
}

// DedupCards collapses cards sharing a URL, first occurrence wins.
// Cards without a URL cannot be visited and are dropped.
func DedupCards(cards []types.RawProductCard) []types.RawProductCard {
	seen := make(map[string]bool, len(cards))
	out := make([]types.RawProductCard, 0, len(cards))
	for _, c := range cards {
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}

// diagName derives a filesystem-safe diagnostic artifact name from a
// page URL.
func diagName(pageURL string) string {
	name := pageURL
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	name = strings.Trim(name, "/")
	replacer := strings.NewReplacer("/", "-", "?", "-", "&", "-", "=", "-", ":", "-", " ", "-")
	name = replacer.Replace(name)
	if name == "" {
		name = "page"
	}
	return "category-" + strings.ToLower(name)
}
