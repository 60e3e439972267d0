package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/enums"
	"github.com/inkmint/inkmint-backend/pkg/types"
)

// Order is the persisted record of a paid checkout. A row only exists
// after the gateway signature verified; amounts are the ones authorized
// at initiation and never recomputed from live product pricing.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string              `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	ShippingAddress  types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	SubtotalCents    int                 `gorm:"column:subtotal_cents;not null"`
	DiscountCents    int                 `gorm:"column:discount_cents;not null;default:0"`
	ShippingCents    int                 `gorm:"column:shipping_cents;not null;default:0"`
	TaxCents         int                 `gorm:"column:tax_cents;not null;default:0"`
	TotalCents       int                 `gorm:"column:total_cents;not null"`
	CouponCode       *string             `gorm:"column:coupon_code"`
	GatewayOrderID   string              `gorm:"column:gateway_order_id;not null;uniqueIndex:orders_gateway_order_id_key"`
	GatewayPaymentID string              `gorm:"column:gateway_payment_id;not null"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null"`
	Status           enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'processing'"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
