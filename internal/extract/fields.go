package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/memdex/merchpipe/internal/types"
)

// Per-field selector candidates for product pages, most specific first.
// The first candidate with a non-empty result wins.
var (
	// No bare h1 fallback: on error pages the only h1 is the error
	// heading, which must never be mistaken for a product name.
	detailNameSelectors = []string{
		`[data-hook="product-title"]`,
		`h1[class*="product"]`,
		`[data-hook="product-page-title"]`,
	}
	detailPriceSelectors = []string{
		`[data-hook="formatted-primary-price"]`,
		`[data-hook="product-price"]`,
		`[class*="ProductPrice"]`,
		`[data-hook="product-item-price-to-pay"]`,
	}
	detailDescriptionSelectors = []string{
		`[data-hook="product-description"]`,
		`[data-hook="info-section-description"]`,
		`[class*="productDescription"]`,
	}
	detailGallerySelectors = []string{
		`[data-hook="product-gallery"] img`,
		`[data-hook="main-media-image-wrapper"] img`,
		`[data-hook="product-images"] img`,
		`[class*="gallery"] img`,
		`[class*="media"] img`,
	}
)

const detailSKUSelector = `[data-hook="product-sku"]`

// DetailFromSnapshot extracts every product field that lives in static
// markup. Fields the page did not render come back zero-valued; the
// caller decides what that means.
func DetailFromSnapshot(s *Snapshot, slug, pageURL string) types.RawProductDetail {
	d := types.RawProductDetail{
		Slug: slug,
		URL:  pageURL,
		Name: firstText(s.doc, detailNameSelectors),
	}

	d.Price = firstText(s.doc, detailPriceSelectors)
	d.Description, d.DescriptionText = descriptionFields(s.doc)
	d.Images = galleryImages(s.doc)
	d.Options = productOptions(s.doc)
	d.SKU = firstText(s.doc, []string{detailSKUSelector})
	d.StructuredData = structuredProductData(s.doc)
	return d
}

// firstText returns the trimmed text of the first selector that
// matches a node with non-empty text.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// descriptionFields returns the description as raw inner HTML and as
// plain text, from the first description container that has content.
func descriptionFields(doc *goquery.Document) (markup, text string) {
	for _, sel := range detailDescriptionSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text = strings.TrimSpace(node.Text())
		if text == "" {
			continue
		}
		if h, err := node.Html(); err == nil {
			markup = strings.TrimSpace(h)
		}
		return markup, text
	}
	return "", ""
}

// galleryImages collects image references from the product media
// gallery, first matching selector group wins. Data URIs are spacer
// placeholders and are skipped; duplicates by src are collapsed.
func galleryImages(doc *goquery.Document) []types.RawImage {
	for _, sel := range detailGallerySelectors {
		var images []types.RawImage
		seen := make(map[string]bool)
		doc.Find(sel).Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("src")
			src = strings.TrimSpace(src)
			if src == "" || strings.HasPrefix(src, "data:") || seen[src] {
				return
			}
			seen[src] = true
			alt, _ := img.Attr("alt")
			images = append(images, types.RawImage{Src: src, Alt: strings.TrimSpace(alt)})
		})
		if len(images) > 0 {
			return images
		}
	}
	return nil
}

// productOptions reads variant option groups (size, color) from the
// option selectors on the page. Placeholder entries ("Select ...") are
// not real values; groups that end up empty are dropped.
func productOptions(doc *goquery.Document) []types.RawOption {
	var options []types.RawOption

	doc.Find(`[data-hook="product-options"] select, [data-hook="option-selector"] select, [class*="OptionSelector"] select`).
		Each(func(_ int, sel *goquery.Selection) {
			label := optionLabel(sel)
			var values []string
			sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
				v := strings.TrimSpace(opt.Text())
				if v == "" || strings.HasPrefix(v, "Select") {
					return
				}
				values = append(values, v)
			})
			if len(values) == 0 {
				return
			}
			options = append(options, types.RawOption{Label: label, Values: values})
		})
	return options
}

// optionLabel finds the human label for an option group by walking up
// to the group container and looking for its label element.
func optionLabel(sel *goquery.Selection) string {
	container := sel.Closest(`[data-hook="product-options-item"], [class*="option"]`)
	if container.Length() == 0 {
		return ""
	}
	label := strings.TrimSpace(container.Find(`label, [class*="title"]`).First().Text())
	return strings.TrimSuffix(label, ":")
}

// structuredProductData returns the decoded JSON-LD block describing
// the product. Pages can carry several ld+json blocks (site, org,
// breadcrumbs); the product block is the one whose @type mentions
// Product or that carries offers. When multiple qualify, the last one
// wins since the storefront emits the most specific block last.
func structuredProductData(doc *goquery.Document) map[string]any {
	var result map[string]any

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data map[string]any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return
		}
		if t, _ := data["@type"].(string); strings.Contains(t, "Product") {
			result = data
			return
		}
		if _, ok := data["offers"]; ok {
			result = data
		}
	})
	return result
}
