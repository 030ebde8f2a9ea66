package cleanup

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/memdex/merchpipe/internal/types"
)

const (
	shortDescriptionLimit = 200
	minStructuredImages   = 3
)

var (
	firstSentence  = regexp.MustCompile(`^[^.!?]+[.!?]`)
	imageSizeToken = regexp.MustCompile(`w_\d+,h_\d+`)
)

// Normalizer turns raw merged product records into the canonical
// catalog. It is a pure transform: no network, no file I/O.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a catalog normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger.With("component", "normalizer")}
}

// FilterValid splits raw records into catalog candidates and failures.
// Records flagged not-found, or with no usable name, never reach the
// catalog; they are returned separately so a later run can retarget
// just the failures.
func FilterValid(raws []types.RawProduct) (valid, failed []types.RawProduct) {
	for _, p := range raws {
		if p.NotFound || strings.TrimSpace(p.Name) == "" {
			failed = append(failed, p)
			continue
		}
		valid = append(valid, p)
	}
	return valid, failed
}

// Normalize produces the canonical catalog from raw records. IDs are
// assigned by pre-sort input position; the output is then sorted by
// (category, name) ascending under locale-aware collation. Running it
// twice on the same input yields identical output.
func (n *Normalizer) Normalize(raws []types.RawProduct) []types.CanonicalProduct {
	products := make([]types.CanonicalProduct, 0, len(raws))
	for i, raw := range raws {
		products = append(products, n.normalizeOne(raw, i))
	}

	c := collate.New(language.English)
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Category != products[j].Category {
			return c.CompareString(products[i].Category, products[j].Category) < 0
		}
		return c.CompareString(products[i].Name, products[j].Name) < 0
	})

	n.logger.Info("catalog normalized", "products", len(products))
	return products
}

// normalizeOne transforms a single raw record. Malformed fields
// degrade to safe defaults; this function always yields a record.
func (n *Normalizer) normalizeOne(p types.RawProduct, index int) types.CanonicalProduct {
	offer := offerData(p.StructuredData)

	description := structuredString(p.StructuredData, "description")
	if description == "" {
		description = p.Description
	}
	short := shortDescription(description)

	cleanedPrice := CleanPrice(p.Price)
	price, ok := offerPrice(offer)
	if !ok {
		price = NumericPrice(cleanedPrice)
	}

	currency := offerString(offer, "priceCurrency")
	if currency == "" {
		currency = "USD"
	}

	return types.CanonicalProduct{
		ID:               fmt.Sprintf("product-%d", index+1),
		Slug:             p.Slug,
		Name:             p.Name,
		ShortDescription: short,
		Description:      description,
		Price:            price,
		FormattedPrice:   fmt.Sprintf("$%.2f", price),
		Currency:         currency,
		Category:         DetectCategory(p.Name),
		Images:           selectImages(p),
		Options:          p.Options,
		SKU:              p.SKU,
		InStock:          strings.Contains(offerAvailability(offer), "InStock"),
		URL:              "shop/product.html?product=" + p.Slug,
	}
}

// shortDescription derives the teaser text: the whole description when
// short enough, else its first sentence, else a truncated prefix with
// an ellipsis marker.
func shortDescription(description string) string {
	runes := []rune(description)
	if len(runes) <= shortDescriptionLimit {
		return description
	}
	if s := firstSentence.FindString(description); s != "" {
		return s
	}
	return string(runes[:shortDescriptionLimit]) + "..."
}

// selectImages builds the catalog image list. Structured metadata
// supplies authored high-resolution images; the rendered gallery is
// the fallback when metadata is absent, or when metadata is sparse
// (fewer than 3 entries) and the gallery is strictly richer.
func selectImages(p types.RawProduct) []types.CatalogImage {
	structured := structuredImages(p)
	dom := domImages(p)

	if len(structured) == 0 {
		return dom
	}
	if len(structured) < minStructuredImages && len(dom) > len(structured) {
		return dom
	}
	return structured
}

// structuredImages maps the metadata image array to catalog entries,
// rewriting any embedded size token to the 800x800 variant and
// deriving 200x200 thumbnails.
func structuredImages(p types.RawProduct) []types.CatalogImage {
	if p.StructuredData == nil {
		return nil
	}
	entries, ok := p.StructuredData["image"].([]any)
	if !ok {
		return nil
	}

	images := make([]types.CatalogImage, 0, len(entries))
	for i, entry := range entries {
		var rawURL, thumbnail string
		switch e := entry.(type) {
		case string:
			rawURL = e
		case map[string]any:
			rawURL, _ = e["contentUrl"].(string)
			if t, ok := e["thumbnail"].(map[string]any); ok {
				thumbnail, _ = t["contentUrl"].(string)
			}
		}

		highRes := imageSizeToken.ReplaceAllString(rawURL, "w_800,h_800")
		if thumbnail == "" {
			thumbnail = strings.Replace(highRes, "w_800,h_800", "w_200,h_200", 1)
		}
		images = append(images, types.CatalogImage{
			URL:       highRes,
			Thumbnail: thumbnail,
			Alt:       p.Name,
			Local:     localImagePath(p.Slug, i),
		})
	}
	return images
}

// domImages maps gallery-extracted images to catalog entries, skipping
// thumbnail strip duplicates and sourceless entries.
func domImages(p types.RawProduct) []types.CatalogImage {
	var images []types.CatalogImage
	for _, img := range p.Images {
		if img.Src == "" || strings.HasPrefix(img.Alt, "Thumbnail:") {
			continue
		}
		alt := img.Alt
		if alt == "" {
			alt = p.Name
		}
		images = append(images, types.CatalogImage{
			URL:       img.Src,
			Thumbnail: img.Src,
			Alt:       alt,
			Local:     localImagePath(p.Slug, len(images)),
		})
	}
	return images
}

// localImagePath is the deterministic on-disk location of a product
// image regardless of the true remote extension.
func localImagePath(slug string, index int) string {
	return "assets/products/" + slug + "/img-" + strconv.Itoa(index) + ".jpg"
}

// CategoryCount is one line of the per-category run summary.
type CategoryCount struct {
	Category string
	Count    int
}

// CategoryCounts tallies catalog products per category for run
// summaries, ordered by category name.
func CategoryCounts(products []types.CanonicalProduct) []CategoryCount {
	counts := make(map[string]int)
	for _, p := range products {
		counts[p.Category]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]CategoryCount, 0, len(names))
	for _, name := range names {
		out = append(out, CategoryCount{Category: name, Count: counts[name]})
	}
	return out
}
