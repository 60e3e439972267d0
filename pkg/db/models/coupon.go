package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/enums"
)

// Coupon is a discount code. Scope restricts which cart lines the
// discount may apply to; ScopeCategoryID/ScopeProductID carry the
// restriction target for the category and product scopes.
type Coupon struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code             string             `gorm:"column:code;not null;uniqueIndex:coupons_code_key"`
	Description      *string            `gorm:"column:description"`
	DiscountType     enums.DiscountType `gorm:"column:discount_type;type:discount_type;not null"`
	DiscountValue    int                `gorm:"column:discount_value;not null"`
	MinPurchaseCents *int               `gorm:"column:min_purchase_cents"`
	MaxDiscountCents *int               `gorm:"column:max_discount_cents"`
	Scope            enums.CouponScope  `gorm:"column:scope;type:coupon_scope;not null;default:'all'"`
	ScopeCategoryID  *uuid.UUID         `gorm:"column:scope_category_id;type:uuid"`
	ScopeProductID   *uuid.UUID         `gorm:"column:scope_product_id;type:uuid"`
	StartsAt         *time.Time         `gorm:"column:starts_at"`
	ExpiresAt        *time.Time         `gorm:"column:expires_at"`
	UsageLimit       *int               `gorm:"column:usage_limit"`
	UsageCount       int                `gorm:"column:usage_count;not null;default:0"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
