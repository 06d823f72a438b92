package models

import "time"

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `json:"title,omitempty"`
	Ratings   float64   `gorm:"not null" json:"ratings"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	User      *User     `json:"user,omitempty"`
	ProductID uint      `gorm:"index;not null" json:"productId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
