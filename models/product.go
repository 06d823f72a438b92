package models

import (
	"slices"
	"time"
)

type Product struct {
	ID                 uint          `gorm:"primaryKey" json:"id"`
	Name               string        `gorm:"size:100;not null" json:"name"`
	Slug               string        `gorm:"index" json:"slug"`
	Description        string        `gorm:"size:500;not null" json:"description"`
	Quantity           int           `gorm:"not null" json:"quantity"`
	Sold               int           `json:"sold"`
	Price              float64       `gorm:"not null" json:"price"`
	PriceAfterDiscount *float64      `json:"priceAfterDiscount,omitempty"`
	Colors             StringList    `gorm:"type:text" json:"colors"`
	ImageCover         string        `json:"imageCover"`
	Images             StringList    `gorm:"type:text" json:"images"`
	CategoryID         uint          `gorm:"index;not null" json:"categoryId"`
	Category           *Category     `json:"category,omitempty"`
	SubCategories      []SubCategory `gorm:"many2many:product_sub_categories" json:"subCategories,omitempty"`
	BrandID            *uint         `gorm:"index" json:"brandId,omitempty"`
	Brand              *Brand        `json:"brand,omitempty"`
	RatingsAverage     float64       `json:"ratingsAverage"`
	RatingsQuantity    int           `json:"ratingsQuantity"`
	CreatedAt          time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (p *Product) HasColor(color string) bool {
	return slices.Contains(p.Colors, color)
}
