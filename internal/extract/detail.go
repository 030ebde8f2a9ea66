package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/memdex/merchpipe/internal/browser"
	"github.com/memdex/merchpipe/internal/config"
	"github.com/memdex/merchpipe/internal/types"
)

// Selectors indicating the product page body has rendered.
var detailReadinessSelectors = []string{
	`[data-hook="product-title"]`,
	`[data-hook="product-description"]`,
	`[data-hook="product-price"]`,
	`h1[class*="product"]`,
	`[class*="ProductPage"]`,
}

// DetailExtractor visits individual product pages and pulls the full
// product record from each.
type DetailExtractor struct {
	cfg    *config.Config
	diag   *Diagnostics
	logger *slog.Logger
}

// NewDetailExtractor creates a detail extractor.
func NewDetailExtractor(cfg *config.Config, diag *Diagnostics, logger *slog.Logger) *DetailExtractor {
	return &DetailExtractor{
		cfg:    cfg,
		diag:   diag,
		logger: logger.With("component", "detail_extractor"),
	}
}

// Extract visits one product page and returns its detail record. It is
// fail-soft: a navigation or parse failure yields a degenerate record
// flagged NotFound with the error recorded, never an error return, so
// one broken page cannot abort a crawl.
func (e *DetailExtractor) Extract(sess *browser.Session, productURL string) types.RawProductDetail {
	slug := SlugFromURL(productURL, e.cfg.Site.ProductPathMarker)
	e.logger.Info("extracting product", "slug", slug)

	if err := sess.Navigate(productURL); err != nil {
		e.logger.Error("product navigation failed", "slug", slug, "error", err)
		return types.RawProductDetail{
			Slug:     slug,
			URL:      productURL,
			Error:    err.Error(),
			NotFound: true,
		}
	}

	sess.AwaitReadiness(detailReadinessSelectors, e.cfg.Browser.DetailWait)

	markup, err := sess.HTML()
	if err != nil {
		e.logger.Error("page capture failed", "slug", slug, "error", err)
		return types.RawProductDetail{
			Slug:     slug,
			URL:      productURL,
			Error:    err.Error(),
			NotFound: true,
		}
	}
	snap, err := NewSnapshot(markup, productURL, e.cfg.Site.ProductPathMarker)
	if err != nil {
		return types.RawProductDetail{
			Slug:     slug,
			URL:      productURL,
			Error:    err.Error(),
			NotFound: true,
		}
	}

	detail := DetailFromSnapshot(snap, slug, productURL)

	// The not-found phrase check runs on every page regardless of what
	// the field selectors matched: error pages can still carry headings
	// and markup that look like product fields.
	if pageSaysNotFound(sess.BodyText(), e.cfg.Site.NotFoundPhrases) {
		e.logger.Warn("product page reports not found", "slug", slug)
		e.diag.Screenshot(sess, "product-"+slug)
		detail.NotFound = true
		return detail
	}

	if len(detail.Images) == 0 {
		detail.Images = e.domImageFallback(sess)
	}

	e.logger.Debug("product extracted",
		"slug", slug,
		"name", detail.Name,
		"images", len(detail.Images),
		"options", len(detail.Options),
	)
	return detail
}

// domImageFallback scans the live DOM for substantial product-host
// images when the gallery selectors matched nothing. Size filtering
// needs naturalWidth, which only exists in the rendered page.
func (e *DetailExtractor) domImageFallback(sess *browser.Session) []types.RawImage {
	js := fmt.Sprintf(`() =>
		Array.from(document.querySelectorAll('img'))
			.filter(img => img.naturalWidth > 100 &&
				img.src &&
				!img.src.startsWith('data:') &&
				img.src.includes(%q))
			.slice(0, 10)
			.map(img => ({src: img.src, alt: img.alt || ''}))`,
		e.cfg.Site.AssetHostMarker)

	var images []types.RawImage
	if err := sess.EvalInto(js, &images); err != nil {
		e.logger.Debug("image fallback scan failed", "error", err)
		return nil
	}
	return images
}

// pageSaysNotFound reports whether the rendered body text contains any
// of the configured not-found phrases, case-insensitively.
func pageSaysNotFound(bodyText string, phrases []string) bool {
	lower := strings.ToLower(bodyText)
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// SlugFromURL derives the product slug: the path segment following the
// product-page marker, with any query or fragment stripped. A URL that
// does not contain the marker is its own identifier.
func SlugFromURL(rawURL, marker string) string {
	i := strings.Index(rawURL, marker)
	if i < 0 {
		return rawURL
	}
	slug := rawURL[i+len(marker):]
	for _, sep := range []string{"?", "#"} {
		if j := strings.Index(slug, sep); j >= 0 {
			slug = slug[:j]
		}
	}
	return strings.Trim(slug, "/")
}
