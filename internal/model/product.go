package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "ACTIVE"
	ProductInactive ProductStatus = "INACTIVE"
)

type Category struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null" json:"name"`
	Slug string `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
}

type Product struct {
	BaseModel
	CategoryID   *uuid.UUID          `gorm:"type:uuid;index" json:"category_id"`
	Category     *Category           `json:"category,omitempty"`
	SKU          string              `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Name         string              `gorm:"type:varchar(255);not null" json:"name"`
	Description  string              `gorm:"type:text" json:"description"`
	Price        decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"price"`
	SalePrice    decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"sale_price"`
	Stock        int                 `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Status       ProductStatus       `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	IsFeatured   bool                `gorm:"not null;default:false" json:"is_featured"`
	ThumbnailURL string              `gorm:"type:varchar(500)" json:"thumbnail_url"`
}

// EffectivePrice is the sale price when one is set, otherwise the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

func (p *Product) IsActive() bool {
	return p.Status == ProductActive
}
