package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a saved shipping address owned by a user.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:addresses_user_id_idx"`
	Name       string    `gorm:"column:name;not null"`
	Line1      string    `gorm:"column:line1;not null"`
	Line2      *string   `gorm:"column:line2"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	Country    string    `gorm:"column:country;not null;default:'IN'"`
	Phone      string    `gorm:"column:phone;not null"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
