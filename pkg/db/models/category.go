package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products in the storefront catalog.
type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex:categories_slug_key"`
	Description *string    `gorm:"column:description"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
