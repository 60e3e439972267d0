package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a customer rating on a product; hidden until approved.
type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:reviews_product_id_idx;uniqueIndex:reviews_product_user_key"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:reviews_product_user_key"`
	Rating     int       `gorm:"column:rating;not null"`
	Title      *string   `gorm:"column:title"`
	Body       *string   `gorm:"column:body"`
	IsApproved bool      `gorm:"column:is_approved;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
