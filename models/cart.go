package models

import "time"

type Cart struct {
	ID                      uint       `gorm:"primaryKey" json:"id"`
	UserID                  uint       `gorm:"uniqueIndex;not null" json:"userId"`
	Items                   []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	TotalCartPrice          float64    `json:"totalCartPrice"`
	TotalPriceAfterDiscount *float64   `json:"totalPriceAfterDiscount,omitempty"`
	CreatedAt               time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

type CartItem struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	CartID    uint     `gorm:"index;not null" json:"-"`
	ProductID uint     `gorm:"not null" json:"productId"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `gorm:"not null" json:"quantity"`
	Price     float64  `gorm:"not null" json:"price"`
	Color     string   `json:"color,omitempty"`
}

// Payable is the amount an order created from the cart is charged.
func (c *Cart) Payable() float64 {
	if c.TotalPriceAfterDiscount != nil {
		return *c.TotalPriceAfterDiscount
	}
	return c.TotalCartPrice
}
