package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// OrderItem is a snapshot copy of one cart line at materialization
// time. Title, variant name, price and design refs are frozen here and
// do not change when the underlying product changes.
type OrderItem struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	ProductID      *uuid.UUID     `gorm:"column:product_id;type:uuid"`
	Title          string         `gorm:"column:title;not null"`
	VariantName    *string        `gorm:"column:variant_name"`
	Quantity       int            `gorm:"column:quantity;not null"`
	UnitPriceCents int            `gorm:"column:unit_price_cents;not null"`
	LineTotalCents int            `gorm:"column:line_total_cents;not null"`
	DesignRefs     pq.StringArray `gorm:"column:design_refs;type:text[]"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
