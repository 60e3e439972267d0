package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductVariant is a concrete size/color option of a product.
// PriceOverrideCents replaces the product price entirely when set;
// PriceModifierCents is added on top of whichever price applies.
type ProductVariant struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:product_variants_product_id_idx"`
	Name               string    `gorm:"column:name;not null"`
	SKU                string    `gorm:"column:sku;not null;uniqueIndex:product_variants_sku_key"`
	PriceOverrideCents *int      `gorm:"column:price_override_cents"`
	PriceModifierCents int       `gorm:"column:price_modifier_cents;not null;default:0"`
	StockQty           int       `gorm:"column:stock_qty;not null;default:0"`
	IsActive           bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
