package models

import "time"

const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

type Order struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"index;not null" json:"userId"`
	User              *User           `json:"user,omitempty"`
	Items             []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"cartItems"`
	TaxPrice          float64         `json:"taxPrice"`
	ShippingPrice     float64         `json:"shippingPrice"`
	TotalOrderPrice   float64         `gorm:"not null" json:"totalOrderPrice"`
	PaymentMethodType string          `gorm:"not null" json:"paymentMethodType"`
	IsPaid            bool            `json:"isPaid"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
	IsDelivered       bool            `json:"isDelivered"`
	DeliveredAt       *time.Time      `json:"deliveredAt,omitempty"`
	ShippingAddress   ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type OrderItem struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	OrderID   uint     `gorm:"index;not null" json:"-"`
	ProductID uint     `gorm:"not null" json:"productId"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `gorm:"not null" json:"quantity"`
	Price     float64  `gorm:"not null" json:"price"`
	Color     string   `json:"color,omitempty"`
}
