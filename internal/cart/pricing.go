package cart

import "github.com/inkmint/inkmint-backend/pkg/db/models"

// UnitPriceCents derives the charged unit price for a product/variant
// pair from live catalog pricing. A variant override replaces the
// product price entirely; otherwise the selling price (falling back to
// the base price) is adjusted by the variant modifier.
func UnitPriceCents(product *models.Product, variant *models.ProductVariant) int {
	if variant != nil && variant.PriceOverrideCents != nil {
		return *variant.PriceOverrideCents
	}

	price := product.BasePriceCents
	if product.SellingPriceCents != nil {
		price = *product.SellingPriceCents
	}
	if variant != nil {
		price += variant.PriceModifierCents
	}
	if price < 0 {
		price = 0
	}
	return price
}
