package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	Name                  string     `gorm:"not null" json:"name"`
	Slug                  string     `json:"slug"`
	Email                 string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone                 string     `json:"phone,omitempty"`
	ProfileImage          string     `json:"profileImage,omitempty"`
	Role                  string     `gorm:"not null" json:"role"`
	Password              string     `gorm:"not null" json:"-"`
	IsActive              bool       `json:"isActive"`
	PasswordChangedAt     *time.Time `json:"passwordChangedAt,omitempty"`
	PasswordResetCode     string     `gorm:"index" json:"-"`
	PasswordResetExpires  *time.Time `json:"-"`
	PasswordResetVerified bool       `json:"-"`
	Addresses             []Address  `gorm:"constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// ShippingAddress is the value part of an address. Orders embed a copy of it.
type ShippingAddress struct {
	Alias    string `json:"alias"`
	Details  string `json:"details"`
	Street   string `json:"street"`
	City     string `json:"city"`
	PostCode string `json:"postCode"`
}

type Address struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"-"`
	ShippingAddress
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
