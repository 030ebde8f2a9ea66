package cleanup

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/memdex/merchpipe/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// --- Category Detection Tests ---

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Stainless Steel Water Bottle", "Drinkware"},
		{"Bull Market Mug", "Drinkware"},
		{"Ceramic Espresso Cup", "Drinkware"},
		{"Diamond Hands Hoodie", "Hoodies & Sweatshirts"},
		{"Cozy Crewneck Sweatshirt", "Hoodies & Sweatshirts"},
		{"Classic Trucker Hat", "Hats"},
		{"Snapback Cap", "Hats"},
		{"Retro Sneakers", "Footwear"},
		{"Pool Slides", "Footwear"},
		{"Running Shoes", "Footwear"},
		{"Soy Candle", "Accessories"},
		{"Laptop Sticker Pack", "Accessories"},
		{"Logo Tee", "T-Shirts"},
		{"Vintage T-Shirt", "T-Shirts"},
		{"Mystery Box", "Other"},
	}

	for _, tt := range tests {
		if got := DetectCategory(tt.name); got != tt.expected {
			t.Errorf("DetectCategory(%q) = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

// Word boundaries must prevent "tee" matching inside "steel" and
// "steel" tripping unrelated rules.
func TestDetectCategoryWordBoundaries(t *testing.T) {
	if got := DetectCategory("Stainless Steel Water Bottle"); got != "Drinkware" {
		t.Fatalf("expected Drinkware, got %q", got)
	}
	if got := DetectCategory("Steelworks Poster"); got != "Other" {
		t.Fatalf("expected Other for non-product name, got %q", got)
	}
}

// --- Price Tests ---

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"$24.99\nPrice", "$24.99"},
		{"$24.99Price", "$24.99"},
		{"$24.99\nPRICE", "$24.99"},
		{"$24.99", "$24.99"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanPrice(tt.in); got != tt.want {
			t.Errorf("CleanPrice(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumericPrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$24.99", 24.99},
		{"24.99", 24.99},
		{"From $18.00", 18},
		{"free", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := NumericPrice(tt.in); got != tt.want {
			t.Errorf("NumericPrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPricePipeline(t *testing.T) {
	cleaned := CleanPrice("$24.99\nPrice")
	if cleaned != "$24.99" {
		t.Fatalf("cleaned price = %q", cleaned)
	}
	n := NewNormalizer(testLogger)
	out := n.Normalize([]types.RawProduct{{Slug: "x", Name: "Widget", Price: "$24.99\nPrice"}})
	if out[0].Price != 24.99 {
		t.Errorf("price = %v, want 24.99", out[0].Price)
	}
	if out[0].FormattedPrice != "$24.99" {
		t.Errorf("formattedPrice = %q, want $24.99", out[0].FormattedPrice)
	}
}

// --- Short Description Tests ---

func TestShortDescriptionFirstSentence(t *testing.T) {
	first := "This mug holds all of it."
	long := first + " " + strings.Repeat("More detail follows here", 10)
	if len(long) <= 200 {
		t.Fatal("fixture must exceed 200 characters")
	}
	if got := shortDescription(long); got != first {
		t.Errorf("shortDescription = %q, want first sentence %q", got, first)
	}
}

func TestShortDescriptionTruncation(t *testing.T) {
	long := strings.Repeat("a", 250)
	got := shortDescription(long)
	if got != strings.Repeat("a", 200)+"..." {
		t.Errorf("expected 200-char prefix with ellipsis, got %d chars", len(got))
	}
}

func TestShortDescriptionShortText(t *testing.T) {
	text := "Short and sweet."
	if got := shortDescription(text); got != text {
		t.Errorf("shortDescription = %q, want unchanged input", got)
	}
}

// --- Image Selection Tests ---

func TestImageFallbackPrefersRicherGallery(t *testing.T) {
	p := types.RawProduct{
		Slug: "test-product",
		Name: "Test Product",
		StructuredData: map[string]any{
			"image": []any{"https://static.wixstatic.com/media/a.jpg/v1/fill/w_50,h_50/a.jpg"},
		},
		Images: []types.RawImage{
			{Src: "https://static.wixstatic.com/1.jpg", Alt: "one"},
			{Src: "https://static.wixstatic.com/2.jpg", Alt: "two"},
			{Src: "https://static.wixstatic.com/3.jpg", Alt: "three"},
			{Src: "https://static.wixstatic.com/4.jpg", Alt: "four"},
			{Src: "https://static.wixstatic.com/5.jpg", Alt: "five"},
		},
	}
	images := selectImages(p)
	if len(images) != 5 {
		t.Fatalf("expected 5 DOM images, got %d", len(images))
	}
	if images[0].URL != "https://static.wixstatic.com/1.jpg" {
		t.Errorf("unexpected first image %q", images[0].URL)
	}
}

func TestImageSelectionKeepsStructuredWhenSufficient(t *testing.T) {
	p := types.RawProduct{
		Slug: "test-product",
		Name: "Test Product",
		StructuredData: map[string]any{
			"image": []any{
				"https://cdn.example.com/a/v1/fill/w_50,h_50,q_80/a.jpg",
				"https://cdn.example.com/b/v1/fill/w_50,h_50,q_80/b.jpg",
				"https://cdn.example.com/c/v1/fill/w_50,h_50,q_80/c.jpg",
			},
		},
		Images: []types.RawImage{
			{Src: "https://cdn.example.com/dom1.jpg"},
			{Src: "https://cdn.example.com/dom2.jpg"},
			{Src: "https://cdn.example.com/dom3.jpg"},
			{Src: "https://cdn.example.com/dom4.jpg"},
		},
	}
	images := selectImages(p)
	if len(images) != 3 {
		t.Fatalf("expected 3 structured images, got %d", len(images))
	}
	if !strings.Contains(images[0].URL, "w_800,h_800") {
		t.Errorf("expected high-res rewrite, got %q", images[0].URL)
	}
	if !strings.Contains(images[0].Thumbnail, "w_200,h_200") {
		t.Errorf("expected thumbnail derivation, got %q", images[0].Thumbnail)
	}
	if images[2].Local != "assets/products/test-product/img-2.jpg" {
		t.Errorf("unexpected local path %q", images[2].Local)
	}
}

func TestDomImagesSkipThumbnailStrip(t *testing.T) {
	p := types.RawProduct{
		Slug: "p",
		Name: "P",
		Images: []types.RawImage{
			{Src: "https://cdn.example.com/full.jpg", Alt: "front"},
			{Src: "https://cdn.example.com/thumb.jpg", Alt: "Thumbnail: front"},
			{Src: "", Alt: "broken"},
		},
	}
	images := domImages(p)
	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(images))
	}
	if images[0].Alt != "front" {
		t.Errorf("alt = %q", images[0].Alt)
	}
}

// --- Filter Tests ---

func TestFilterValid(t *testing.T) {
	raws := []types.RawProduct{
		{Slug: "good", Name: "Good Product"},
		{Slug: "gone", Name: "Removed Product", NotFound: true},
		{Slug: "anon", Name: "   "},
	}
	valid, failed := FilterValid(raws)
	if len(valid) != 1 || valid[0].Slug != "good" {
		t.Fatalf("valid = %+v", valid)
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed records, got %d", len(failed))
	}
}

// --- Normalize Tests ---

func TestNormalizeEndToEnd(t *testing.T) {
	raws := []types.RawProduct{{
		Slug:  "bull-market-mug",
		Name:  "Bull Market Mug",
		Price: "$18.00\nPrice",
	}}

	n := NewNormalizer(testLogger)
	out := n.Normalize(raws)
	if len(out) != 1 {
		t.Fatalf("expected 1 product, got %d", len(out))
	}

	p := out[0]
	if p.ID != "product-1" {
		t.Errorf("id = %q", p.ID)
	}
	if p.Category != "Drinkware" {
		t.Errorf("category = %q, want Drinkware", p.Category)
	}
	if p.Price != 18 {
		t.Errorf("price = %v, want 18", p.Price)
	}
	if p.FormattedPrice != "$18.00" {
		t.Errorf("formattedPrice = %q, want $18.00", p.FormattedPrice)
	}
	if len(p.Images) != 0 {
		t.Errorf("expected no images, got %d", len(p.Images))
	}
	if p.InStock {
		t.Error("expected inStock false without availability data")
	}
	if p.Currency != "USD" {
		t.Errorf("currency = %q, want USD", p.Currency)
	}
	if p.URL != "shop/product.html?product=bull-market-mug" {
		t.Errorf("url = %q", p.URL)
	}
}

func TestNormalizeStructuredOffer(t *testing.T) {
	raws := []types.RawProduct{{
		Slug:  "hoodie",
		Name:  "Diamond Hands Hoodie",
		Price: "$99.00",
		StructuredData: map[string]any{
			"description": "A premium hoodie.",
			"Offers": map[string]any{
				"price":         "54.50",
				"priceCurrency": "EUR",
				"Availability":  "https://schema.org/InStock",
			},
		},
	}}

	n := NewNormalizer(testLogger)
	p := n.Normalize(raws)[0]
	if p.Price != 54.50 {
		t.Errorf("price = %v, want structured offer 54.50", p.Price)
	}
	if p.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", p.Currency)
	}
	if !p.InStock {
		t.Error("expected inStock true for InStock availability")
	}
	if p.Description != "A premium hoodie." {
		t.Errorf("description = %q", p.Description)
	}
}

// Malformed metadata with a negative offer price must not reach the
// catalog; the display price wins, and with no display price either,
// the price degrades to zero.
func TestNormalizeRejectsNegativeOfferPrice(t *testing.T) {
	n := NewNormalizer(testLogger)

	withDisplay := n.Normalize([]types.RawProduct{{
		Slug:  "mug",
		Name:  "Bull Market Mug",
		Price: "$12.00\nPrice",
		StructuredData: map[string]any{
			"Offers": map[string]any{"price": "-5.00"},
		},
	}})[0]
	if withDisplay.Price != 12 {
		t.Errorf("price = %v, want display-price fallback 12", withDisplay.Price)
	}
	if withDisplay.FormattedPrice != "$12.00" {
		t.Errorf("formattedPrice = %q", withDisplay.FormattedPrice)
	}

	withoutDisplay := n.Normalize([]types.RawProduct{{
		Slug: "mug",
		Name: "Bull Market Mug",
		StructuredData: map[string]any{
			"Offers": map[string]any{"price": float64(-5)},
		},
	}})[0]
	if withoutDisplay.Price != 0 {
		t.Errorf("price = %v, want safe default 0", withoutDisplay.Price)
	}
}

func TestNormalizeSortOrder(t *testing.T) {
	raws := []types.RawProduct{
		{Slug: "tee", Name: "Zebra Tee"},
		{Slug: "mug", Name: "Alpha Mug"},
		{Slug: "cap", Name: "Beta Cap"},
		{Slug: "mug2", Name: "Beta Mug"},
	}

	n := NewNormalizer(testLogger)
	out := n.Normalize(raws)

	var got []string
	for _, p := range out {
		got = append(got, p.Category+"/"+p.Name)
	}
	want := []string{
		"Drinkware/Alpha Mug",
		"Drinkware/Beta Mug",
		"Hats/Beta Cap",
		"T-Shirts/Zebra Tee",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

// IDs follow pre-sort input order, so reordered output still carries
// the original positions.
func TestNormalizeIDAssignment(t *testing.T) {
	raws := []types.RawProduct{
		{Slug: "tee", Name: "Zebra Tee"},
		{Slug: "mug", Name: "Alpha Mug"},
	}
	n := NewNormalizer(testLogger)
	out := n.Normalize(raws)

	ids := map[string]string{}
	for _, p := range out {
		ids[p.Slug] = p.ID
	}
	if ids["tee"] != "product-1" || ids["mug"] != "product-2" {
		t.Errorf("ids = %v, want pre-sort assignment", ids)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raws := []types.RawProduct{
		{Slug: "mug", Name: "Bull Market Mug", Price: "$18.00\nPrice"},
		{Slug: "tee", Name: "Logo Tee", Price: "$25.00"},
	}

	n := NewNormalizer(testLogger)
	first, err := json.Marshal(n.Normalize(raws))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(n.Normalize(raws))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("normalization is not idempotent")
	}
}

func TestCategoryCounts(t *testing.T) {
	n := NewNormalizer(testLogger)
	out := n.Normalize([]types.RawProduct{
		{Slug: "a", Name: "Alpha Mug"},
		{Slug: "b", Name: "Beta Mug"},
		{Slug: "c", Name: "Logo Tee"},
	})
	counts := CategoryCounts(out)
	if len(counts) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(counts))
	}
	if counts[0].Category != "Drinkware" || counts[0].Count != 2 {
		t.Errorf("first count = %+v", counts[0])
	}
	if counts[1].Category != "T-Shirts" || counts[1].Count != 1 {
		t.Errorf("second count = %+v", counts[1])
	}
}
