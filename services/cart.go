// Package services holds the workflows that span several records: cart,
// checkout, reviews and account recovery.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eshop/apperr"
	"eshop/models"

	"gorm.io/gorm"
)

var errCartNotFound = apperr.NotFound("Cart not found")

type CartService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db, now: time.Now}
}

type AddToCartInput struct {
	ProductID uint
	Color     string
	Quantity  int
}

// CartItemUpdate carries the optional fields of an item update.
type CartItemUpdate struct {
	Color    *string
	Quantity *int
}

func loadCart(tx *gorm.DB, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

func findProduct(tx *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	err := tx.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}
	return &product, nil
}

// recompute reloads the items, rewrites the total and drops any applied
// coupon discount.
func recompute(tx *gorm.DB, cart *models.Cart) error {
	if err := tx.Where("cart_id = ?", cart.ID).Order("id").Find(&cart.Items).Error; err != nil {
		return fmt.Errorf("reload cart items: %w", err)
	}

	cart.TotalCartPrice = CartTotal(cart.Items)
	cart.TotalPriceAfterDiscount = nil

	return tx.Model(cart).Updates(map[string]any{
		"total_cart_price":           cart.TotalCartPrice,
		"total_price_after_discount": nil,
	}).Error
}

func (s *CartService) AddToCart(ctx context.Context, userID uint, in AddToCartInput) (*models.Cart, error) {
	if in.Quantity < 1 {
		in.Quantity = 1
	}

	var cart *models.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := findProduct(tx, in.ProductID)
		if err != nil {
			return err
		}
		if product.Quantity == 0 || (in.Color != "" && !product.HasColor(in.Color)) {
			return apperr.NotFound("Product not found")
		}

		cart, err = loadCart(tx, userID)
		if errors.Is(err, errCartNotFound) {
			cart = &models.Cart{UserID: userID}
			err = tx.Create(cart).Error
		}
		if err != nil {
			return err
		}

		merged := false
		for i := range cart.Items {
			item := &cart.Items[i]
			if item.ProductID == in.ProductID && item.Color == in.Color {
				item.Quantity += in.Quantity
				if err := tx.Model(item).Update("quantity", item.Quantity).Error; err != nil {
					return err
				}
				merged = true
				break
			}
		}
		if !merged {
			item := models.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				Quantity:  in.Quantity,
				Price:     product.Price,
				Color:     in.Color,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		return recompute(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) GetMyCart(ctx context.Context, userID uint) (*models.Cart, error) {
	return loadCart(s.db.WithContext(ctx), userID)
}

// UpdateCartItem changes the color and/or quantity of the first item of the
// given product.
func (s *CartService) UpdateCartItem(ctx context.Context, userID, productID uint, in CartItemUpdate) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = loadCart(tx, userID)
		if err != nil {
			return err
		}

		var item *models.CartItem
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				item = &cart.Items[i]
				break
			}
		}
		if item == nil {
			return apperr.NotFound("Product not found in cart")
		}

		product, err := findProduct(tx, productID)
		if err != nil {
			return err
		}

		if in.Color != nil && *in.Color != "" {
			if !product.HasColor(*in.Color) {
				return apperr.BadRequest("Color %q is not available for this product", *in.Color)
			}
			item.Color = *in.Color
		}
		if in.Quantity != nil {
			if *in.Quantity < 1 {
				return apperr.BadRequest("Quantity must be at least 1")
			}
			if *in.Quantity > product.Quantity {
				return apperr.BadRequest("Only %d items available", product.Quantity)
			}
			item.Quantity = *in.Quantity
		}

		if err := tx.Model(item).Updates(map[string]any{"color": item.Color, "quantity": item.Quantity}).Error; err != nil {
			return err
		}
		return recompute(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) RemoveCartItem(ctx context.Context, userID, itemID uint) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = loadCart(tx, userID)
		if err != nil {
			return err
		}

		res := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}, itemID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Item not found in cart")
		}
		return recompute(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// ClearCart deletes the caller's cart. Clearing a missing cart is not an
// error.
func (s *CartService) ClearCart(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Where("user_id = ?", userID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Select("Items").Delete(&cart).Error
	})
}

// ApplyCoupon sets the discounted total from an unexpired coupon. The next
// cart mutation clears it again.
func (s *CartService) ApplyCoupon(ctx context.Context, userID uint, code string) (*models.Cart, error) {
	tx := s.db.WithContext(ctx)

	var coupon models.Coupon
	err := tx.Where("name = ? AND expire > ?", code, s.now()).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.BadRequest("Coupon is invalid or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("load coupon: %w", err)
	}

	cart, err := loadCart(tx, userID)
	if err != nil {
		return nil, err
	}

	discounted := Discounted(cart.TotalCartPrice, coupon.Discount)
	if err := tx.Model(cart).Update("total_price_after_discount", discounted).Error; err != nil {
		return nil, fmt.Errorf("apply coupon: %w", err)
	}
	cart.TotalPriceAfterDiscount = &discounted

	return cart, nil
}
