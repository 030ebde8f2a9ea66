package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/memdex/merchpipe/internal/types"
)

// Snapshot is a parsed copy of a rendered page. Extraction strategies
// operate on snapshots only, so each is testable against fixture HTML
// without a live browser.
type Snapshot struct {
	doc    *goquery.Document
	root   *html.Node
	base   *url.URL
	marker string
}

// NewSnapshot parses page markup captured from the session. base is
// the page URL (relative hrefs resolve against it); marker is the
// product-page path fragment that identifies product links.
func NewSnapshot(markup, base, marker string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	root, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot tree: %w", err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	return &Snapshot{doc: doc, root: root, base: baseURL, marker: marker}, nil
}

// resolve turns a possibly-relative href into an absolute URL string.
func (s *Snapshot) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := s.base.Parse(href)
	if err != nil {
		return href
	}
	return u.String()
}

// --- Card strategies (ordered, first non-empty result wins) ---

// cardStrategy is one pure snapshot-to-cards extraction attempt.
type cardStrategy struct {
	name string
	run  func(s *Snapshot) []types.RawProductCard
}

func cardStrategies() []cardStrategy {
	return []cardStrategy{
		{name: "grid_items", run: cardsFromGrid},
		{name: "product_links", run: cardsFromProductLinks},
		{name: "embedded_json", run: cardsFromEmbeddedJSON},
	}
}

// CardsFromSnapshot runs the strategies in priority order and returns
// the first non-empty result with the winning strategy's name.
// Strategies are never merged.
func CardsFromSnapshot(s *Snapshot) ([]types.RawProductCard, string) {
	for _, strat := range cardStrategies() {
		if cards := strat.run(s); len(cards) > 0 {
			return cards, strat.name
		}
	}
	return nil, ""
}

// Storefront grid markup markers. These are specific to the one site
// being crawled and are ordered by specificity.
const (
	gridItemSelector  = `[data-hook="product-list-grid-item"], li[data-hook*="product"], [data-hook="gallery-item-container"]`
	gridNameSelector  = `[data-hook="product-item-name"], [data-hook="product-title"], h3, h2, [class*="productName"], [class*="product-name"]`
	gridPriceSelector = `[data-hook="product-item-price-to-pay"], [data-hook="product-price"], [class*="price"]`
)

// cardsFromGrid reads the structured product grid: one card per grid
// item, each field located by its own prioritized sub-selector list.
// Items with neither a name nor a product link are dropped.
func cardsFromGrid(s *Snapshot) []types.RawProductCard {
	var cards []types.RawProductCard

	linkSelector := fmt.Sprintf(`a[href*=%q]`, s.marker)
	s.doc.Find(gridItemSelector).Each(func(_ int, item *goquery.Selection) {
		name := strings.TrimSpace(item.Find(gridNameSelector).First().Text())
		price := strings.TrimSpace(item.Find(gridPriceSelector).First().Text())
		href, _ := item.Find(linkSelector).First().Attr("href")
		img := item.Find("img").First()
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")

		if name == "" && href == "" {
			return
		}
		cards = append(cards, types.RawProductCard{
			Name:     name,
			Price:    price,
			URL:      s.resolve(href),
			Image:    src,
			ImageAlt: alt,
		})
	})
	return cards
}

// cardsFromProductLinks is the fallback for pages without a
// recognizable grid: every anchor pointing at a product page becomes a
// candidate, deduplicated by href within this pass, with card fields
// pulled from the nearest product-looking ancestor container.
func cardsFromProductLinks(s *Snapshot) []types.RawProductCard {
	var cards []types.RawProductCard
	seen := make(map[string]bool)

	anchors := htmlquery.Find(s.root, fmt.Sprintf(`//a[contains(@href, %q)]`, s.marker))
	for _, a := range anchors {
		href := s.resolve(htmlquery.SelectAttr(a, "href"))
		if href == "" || seen[href] {
			continue
		}
		seen[href] = true

		container := nearestProductContainer(a)
		name := ""
		if n := htmlquery.FindOne(container, `.//*[@data-hook="product-item-name"] | .//h2 | .//h3 | .//h4`); n != nil {
			name = strings.TrimSpace(htmlquery.InnerText(n))
		}
		if name == "" {
			name = strings.TrimSpace(htmlquery.InnerText(a))
		}
		price := ""
		if n := htmlquery.FindOne(container, `.//*[contains(@data-hook, "price")] | .//*[contains(@class, "price")]`); n != nil {
			price = strings.TrimSpace(htmlquery.InnerText(n))
		}
		var src, alt string
		if n := htmlquery.FindOne(container, `.//img`); n != nil {
			src = htmlquery.SelectAttr(n, "src")
			alt = htmlquery.SelectAttr(n, "alt")
		}

		cards = append(cards, types.RawProductCard{
			Name:     name,
			Price:    price,
			URL:      href,
			Image:    src,
			ImageAlt: alt,
		})
	}
	return cards
}

// nearestProductContainer walks up from an anchor to the closest
// ancestor that looks like a product tile (list item, article, or an
// element whose class mentions product or gallery-item). Falls back to
// the anchor itself.
func nearestProductContainer(a *html.Node) *html.Node {
	for n := a.Parent; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if n.Data == "li" || n.Data == "article" {
			return n
		}
		class := strings.ToLower(htmlquery.SelectAttr(n, "class"))
		if strings.Contains(class, "product") || strings.Contains(class, "gallery-item") {
			return n
		}
	}
	return a
}
