package models

import "time"

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:30;not null" json:"name"`
	Slug      string    `gorm:"index" json:"slug"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type SubCategory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"uniqueIndex;size:30;not null" json:"name"`
	Slug       string    `gorm:"index" json:"slug"`
	CategoryID uint      `gorm:"index;not null" json:"categoryId"`
	Category   *Category `json:"category,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
