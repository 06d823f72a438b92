package services

import (
	"context"
	"fmt"

	"eshop/apperr"
	"eshop/models"

	"gorm.io/gorm"
)

// AddressService manages the address book of the signed-in user.
type AddressService struct {
	db *gorm.DB
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	addresses := []models.Address{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

// Add appends addr unless an identical address is already saved and returns
// the whole address book.
func (s *AddressService) Add(ctx context.Context, userID uint, addr models.ShippingAddress) ([]models.Address, error) {
	if err := saveAddress(s.db.WithContext(ctx), userID, addr); err != nil {
		return nil, err
	}
	return s.List(ctx, userID)
}

// Update changes the given columns of one address of the user.
func (s *AddressService) Update(ctx context.Context, userID, addressID uint, changes map[string]any) ([]models.Address, error) {
	tx := s.db.WithContext(ctx)

	var count int64
	if err := tx.Model(&models.Address{}).Where("id = ? AND user_id = ?", addressID, userID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.NotFound("Address not found.")
	}

	if len(changes) > 0 {
		err := tx.Model(&models.Address{}).Where("id = ? AND user_id = ?", addressID, userID).Updates(changes).Error
		if err != nil {
			return nil, fmt.Errorf("update address %d: %w", addressID, err)
		}
	}
	return s.List(ctx, userID)
}

func (s *AddressService) Delete(ctx context.Context, userID, addressID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Address{}, addressID)
	if res.Error != nil {
		return fmt.Errorf("delete address %d: %w", addressID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Address not found.")
	}
	return nil
}
