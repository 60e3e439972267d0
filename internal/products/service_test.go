package product

import (
	"testing"

	"github.com/inkmint/inkmint-backend/pkg/db/models"
)

func stringPtr(v string) *string { return &v }
func intPtr(v int) *int          { return &v }
func boolPtr(v bool) *bool       { return &v }

func TestApplyUpdateToProductTrimsAndCopies(t *testing.T) {
	product := &models.Product{
		SKU:            "old-sku",
		Title:          "old title",
		Slug:           "old-slug",
		BasePriceCents: 1000,
	}

	tags := []string{"tees", "featured"}
	input := UpdateProductInput{
		SKU:            stringPtr("  new-sku  "),
		Title:          stringPtr("  New Title "),
		Slug:           stringPtr(" New-Slug "),
		BasePriceCents: intPtr(2000),
		IsActive:       boolPtr(false),
		Tags:           &tags,
	}

	applyUpdateToProduct(product, input)

	if product.SKU != "new-sku" {
		t.Fatalf("expected trimmed sku, got %s", product.SKU)
	}
	if product.Title != "New Title" {
		t.Fatalf("expected trimmed title, got %s", product.Title)
	}
	if product.Slug != "new-slug" {
		t.Fatalf("expected normalized slug, got %s", product.Slug)
	}
	if product.BasePriceCents != 2000 {
		t.Fatalf("expected base price 2000, got %d", product.BasePriceCents)
	}
	if product.IsActive {
		t.Fatal("expected is_active false")
	}
	if len(product.Tags) != 2 || product.Tags[0] != "tees" {
		t.Fatalf("expected tags copied, got %v", product.Tags)
	}
}

func TestApplyUpdateSellingPriceClearWinsOverValue(t *testing.T) {
	product := &models.Product{SellingPriceCents: intPtr(900)}

	applyUpdateToProduct(product, UpdateProductInput{
		SellingPriceCents: intPtr(800),
		ClearSellingPrice: true,
	})
	if product.SellingPriceCents != nil {
		t.Fatalf("expected selling price cleared, got %v", *product.SellingPriceCents)
	}

	applyUpdateToProduct(product, UpdateProductInput{SellingPriceCents: intPtr(800)})
	if product.SellingPriceCents == nil || *product.SellingPriceCents != 800 {
		t.Fatalf("expected selling price 800, got %v", product.SellingPriceCents)
	}
}

func TestValidateVariantInput(t *testing.T) {
	valid := VariantInput{Name: "XL", SKU: "tee-xl", StockQty: 5, IsActive: true}
	if err := validateVariantInput(valid); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	cases := map[string]VariantInput{
		"missingName":      {SKU: "tee-xl"},
		"missingSKU":       {Name: "XL"},
		"negativeOverride": {Name: "XL", SKU: "tee-xl", PriceOverrideCents: intPtr(-1)},
		"negativeStock":    {Name: "XL", SKU: "tee-xl", StockQty: -1},
	}
	for name, input := range cases {
		if err := validateVariantInput(input); err == nil {
			t.Fatalf("case %s: expected validation error", name)
		}
	}
}

func TestNormalizeSlug(t *testing.T) {
	if got := normalizeSlug("  Classic-Tee "); got != "classic-tee" {
		t.Fatalf("unexpected slug %q", got)
	}
}
