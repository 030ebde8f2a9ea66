package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/memdex/merchpipe/internal/types"
)

// maxEmbeddedDepth bounds the recursive search through embedded JSON
// payloads. Decoded JSON is acyclic, so the bound exists to keep
// degenerate deeply-nested payloads from dominating the crawl.
const maxEmbeddedDepth = 10

// cardsFromEmbeddedJSON is the last-resort category strategy: scan
// inline application/json script payloads for any nested array whose
// elements duck-type as product objects (a name-like field and a
// price-like field together).
func cardsFromEmbeddedJSON(s *Snapshot) []types.RawProductCard {
	var cards []types.RawProductCard

	s.doc.Find(`script[type="application/json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		// Cheap pre-filter before decoding the whole payload.
		if !strings.Contains(raw, "product") || !strings.Contains(raw, "price") {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		cards = append(cards, findEmbeddedProducts(data, 0, s)...)
	})
	return cards
}

// findEmbeddedProducts recursively searches a decoded JSON value for
// arrays of product-shaped objects, up to maxEmbeddedDepth levels.
func findEmbeddedProducts(v any, depth int, s *Snapshot) []types.RawProductCard {
	if depth > maxEmbeddedDepth {
		return nil
	}

	var cards []types.RawProductCard
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if card, ok := productShaped(item); ok {
				card.URL = s.resolve(card.URL)
				cards = append(cards, card)
				continue
			}
			cards = append(cards, findEmbeddedProducts(item, depth+1, s)...)
		}
	case map[string]any:
		for _, child := range val {
			cards = append(cards, findEmbeddedProducts(child, depth+1, s)...)
		}
	}
	return cards
}

// productShaped duck-types a JSON value as a product object: it must
// carry a non-empty name-like field and any price-like field.
func productShaped(v any) (types.RawProductCard, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return types.RawProductCard{}, false
	}

	name := stringField(obj, "name")
	if name == "" {
		name = stringField(obj, "productName")
	}
	if name == "" {
		return types.RawProductCard{}, false
	}

	price, hasPrice := priceField(obj)
	if !hasPrice {
		return types.RawProductCard{}, false
	}

	pageURL := stringField(obj, "productPageUrl")
	if pageURL == "" {
		pageURL = stringField(obj, "url")
	}

	return types.RawProductCard{
		Name:     name,
		Price:    price,
		URL:      pageURL,
		Image:    embeddedImageURL(obj),
		ImageAlt: name,
	}, true
}

// priceField reads a displayable price from the common shapes seen in
// storefront payloads: formattedPrice, price.formatted, or a bare
// price value.
func priceField(obj map[string]any) (string, bool) {
	if s := stringField(obj, "formattedPrice"); s != "" {
		return s, true
	}
	switch p := obj["price"].(type) {
	case nil:
		return "", false
	case map[string]any:
		if s := stringField(p, "formatted"); s != "" {
			return s, true
		}
		return "", true
	case string:
		return p, true
	case float64:
		return fmt.Sprintf("%v", p), true
	default:
		return fmt.Sprintf("%v", p), true
	}
}

// embeddedImageURL digs out a thumbnail URL from the payload shapes
// the storefront uses: mainMedia.image.url, media[0].url, imageUrl.
func embeddedImageURL(obj map[string]any) string {
	if mm, ok := obj["mainMedia"].(map[string]any); ok {
		if img, ok := mm["image"].(map[string]any); ok {
			if u := stringField(img, "url"); u != "" {
				return u
			}
		}
	}
	if media, ok := obj["media"].([]any); ok && len(media) > 0 {
		if first, ok := media[0].(map[string]any); ok {
			if u := stringField(first, "url"); u != "" {
				return u
			}
		}
	}
	return stringField(obj, "imageUrl")
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}
