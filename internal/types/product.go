package types

// RawProductCard is a single product tile scraped from a category
// listing page. URL is the dedup key across listing pages.
type RawProductCard struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	URL      string `json:"url"`
	Image    string `json:"image"`
	ImageAlt string `json:"imageAlt"`
}

// RawImage is an image reference as found in the page DOM.
type RawImage struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// RawOption is one variant option group (e.g. Size) with its values.
type RawOption struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// RawProductDetail is the result of visiting one product page.
// NotFound marks pages that rendered a "product couldn't be found"
// state (or failed outright); such records never reach the catalog.
type RawProductDetail struct {
	Slug            string         `json:"slug"`
	URL             string         `json:"url"`
	Name            string         `json:"name"`
	Price           string         `json:"price"`
	Description     string         `json:"description"`
	DescriptionText string         `json:"descriptionText"`
	Images          []RawImage     `json:"images"`
	Options         []RawOption    `json:"options"`
	SKU             string         `json:"sku"`
	StructuredData  map[string]any `json:"structuredData"`
	NotFound        bool           `json:"notFound"`
	Error           string         `json:"error,omitempty"`
}

// RawProduct is a category card merged with its detail record.
// Detail fields win; card fields fill gaps the detail left empty.
type RawProduct struct {
	Slug            string         `json:"slug"`
	URL             string         `json:"url"`
	Name            string         `json:"name"`
	Price           string         `json:"price"`
	Description     string         `json:"description"`
	DescriptionHTML string         `json:"descriptionHtml"`
	Images          []RawImage     `json:"images"`
	Options         []RawOption    `json:"options"`
	SKU             string         `json:"sku"`
	StructuredData  map[string]any `json:"structuredData"`
	CategoryImage   string         `json:"categoryImage"`
	NotFound        bool           `json:"notFound"`
	Error           string         `json:"error,omitempty"`
}

// CatalogImage is one image entry of a canonical product. Local is the
// deterministic on-disk path regardless of the true remote extension.
type CatalogImage struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Alt       string `json:"alt"`
	Local     string `json:"local"`
}

// CanonicalProduct is the unit stored in the catalog file read by the
// storefront. The catalog is sorted by (Category, Name) ascending.
type CanonicalProduct struct {
	ID               string         `json:"id"`
	Slug             string         `json:"slug"`
	Name             string         `json:"name"`
	ShortDescription string         `json:"shortDescription"`
	Description      string         `json:"description"`
	Price            float64        `json:"price"`
	FormattedPrice   string         `json:"formattedPrice"`
	Currency         string         `json:"currency"`
	Category         string         `json:"category"`
	Images           []CatalogImage `json:"images"`
	Options          []RawOption    `json:"options"`
	SKU              string         `json:"sku"`
	InStock          bool           `json:"inStock"`
	URL              string         `json:"url"`
}

// Merge combines a listing card with the detail record extracted from
// the product's own page. Detail values take priority; the card value
// is used only where the detail came back empty. A card thumbnail
// becomes the sole image when the detail page yielded none.
func Merge(card RawProductCard, detail RawProductDetail) RawProduct {
	p := RawProduct{
		Slug:            detail.Slug,
		URL:             detail.URL,
		Name:            detail.Name,
		Price:           detail.Price,
		Description:     detail.DescriptionText,
		DescriptionHTML: detail.Description,
		Images:          detail.Images,
		Options:         detail.Options,
		SKU:             detail.SKU,
		StructuredData:  detail.StructuredData,
		CategoryImage:   card.Image,
		NotFound:        detail.NotFound,
		Error:           detail.Error,
	}
	if p.URL == "" {
		p.URL = card.URL
	}
	if p.Name == "" {
		p.Name = card.Name
	}
	if p.Price == "" {
		p.Price = card.Price
	}
	if len(p.Images) == 0 && card.Image != "" {
		p.Images = []RawImage{{Src: card.Image, Alt: card.ImageAlt}}
	}
	return p
}
