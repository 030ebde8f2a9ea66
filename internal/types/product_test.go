package types

import (
	"testing"
)

func TestMergeDetailPriority(t *testing.T) {
	card := RawProductCard{
		Name:     "Card Name",
		Price:    "$10.00",
		URL:      "https://example.com/product-page/x",
		Image:    "https://cdn.example.com/thumb.jpg",
		ImageAlt: "thumb",
	}
	detail := RawProductDetail{
		Slug:            "x",
		URL:             "https://example.com/product-page/x?rendered",
		Name:            "Detail Name",
		Price:           "$12.00\nPrice",
		Description:     "<p>rich</p>",
		DescriptionText: "rich",
		Images:          []RawImage{{Src: "https://cdn.example.com/full.jpg", Alt: "full"}},
		SKU:             "SKU-1",
	}

	p := Merge(card, detail)
	if p.Name != "Detail Name" {
		t.Errorf("name = %q, detail must win", p.Name)
	}
	if p.Price != "$12.00\nPrice" {
		t.Errorf("price = %q", p.Price)
	}
	if p.URL != "https://example.com/product-page/x?rendered" {
		t.Errorf("url = %q", p.URL)
	}
	if len(p.Images) != 1 || p.Images[0].Src != "https://cdn.example.com/full.jpg" {
		t.Errorf("images = %+v", p.Images)
	}
	if p.CategoryImage != "https://cdn.example.com/thumb.jpg" {
		t.Errorf("categoryImage = %q", p.CategoryImage)
	}
	if p.DescriptionHTML != "<p>rich</p>" || p.Description != "rich" {
		t.Errorf("descriptions = %q / %q", p.DescriptionHTML, p.Description)
	}
}

func TestMergeCardFallback(t *testing.T) {
	card := RawProductCard{
		Name:     "Card Name",
		Price:    "$10.00",
		URL:      "https://example.com/product-page/x",
		Image:    "https://cdn.example.com/thumb.jpg",
		ImageAlt: "thumb",
	}
	detail := RawProductDetail{Slug: "x"}

	p := Merge(card, detail)
	if p.Name != "Card Name" {
		t.Errorf("name = %q, card must fill gap", p.Name)
	}
	if p.Price != "$10.00" {
		t.Errorf("price = %q", p.Price)
	}
	if p.URL != "https://example.com/product-page/x" {
		t.Errorf("url = %q", p.URL)
	}
	// Card thumbnail becomes the sole image when the detail had none.
	if len(p.Images) != 1 || p.Images[0].Src != "https://cdn.example.com/thumb.jpg" {
		t.Errorf("images = %+v", p.Images)
	}
	if p.Images[0].Alt != "thumb" {
		t.Errorf("alt = %q", p.Images[0].Alt)
	}
}

func TestMergeCarriesFailureState(t *testing.T) {
	detail := RawProductDetail{
		Slug:     "broken",
		URL:      "https://example.com/product-page/broken",
		Error:    "navigate: timeout",
		NotFound: true,
	}
	p := Merge(RawProductCard{URL: detail.URL}, detail)
	if !p.NotFound {
		t.Error("notFound flag lost in merge")
	}
	if p.Error != "navigate: timeout" {
		t.Errorf("error = %q", p.Error)
	}
}
