package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Product is a catalog entry. Pricing: the storefront charges
// SellingPriceCents when set, otherwise BasePriceCents; variants may
// override or adjust either (see ProductVariant).
type Product struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID        uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index:products_category_id_idx"`
	SKU               string           `gorm:"column:sku;not null;uniqueIndex:products_sku_key"`
	Title             string           `gorm:"column:title;not null"`
	Slug              string           `gorm:"column:slug;not null;uniqueIndex:products_slug_key"`
	Description       *string          `gorm:"column:description"`
	BasePriceCents    int              `gorm:"column:base_price_cents;not null"`
	SellingPriceCents *int             `gorm:"column:selling_price_cents"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true"`
	IsCustomizable    bool             `gorm:"column:is_customizable;not null;default:false"`
	Tags              pq.StringArray   `gorm:"column:tags;type:text[]"`
	Variants          []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
