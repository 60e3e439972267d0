package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CartItem is one line of a user's in-progress order. Unit price is
// never stored here: it is derived from live product/variant pricing
// each time the cart is read.
type CartItem struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index:cart_items_user_id_idx"`
	ProductID  uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	VariantID  *uuid.UUID     `gorm:"column:variant_id;type:uuid"`
	Quantity   int            `gorm:"column:quantity;not null"`
	DesignRefs pq.StringArray `gorm:"column:design_refs;type:text[]"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
