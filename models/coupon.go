package models

import "time"

type Coupon struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:30;not null" json:"name"`
	Discount  float64   `gorm:"not null" json:"discount"`
	Expire    time.Time `gorm:"not null" json:"expire"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
