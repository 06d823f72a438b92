package services

import (
	"context"
	"errors"
	"fmt"

	"eshop/apperr"
	"eshop/models"

	"gorm.io/gorm"
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

type ReviewInput struct {
	Title     string
	Ratings   float64
	ProductID uint
}

type ReviewUpdate struct {
	Title   *string
	Ratings *float64
}

func (s *ReviewService) Create(ctx context.Context, user *models.User, in ReviewInput) (*models.Review, error) {
	tx := s.db.WithContext(ctx)

	if err := tx.Select("id").First(&models.Product{}, in.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("No product for this id %d", in.ProductID)
		}
		return nil, err
	}

	var count int64
	err := tx.Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", user.ID, in.ProductID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.BadRequest("You already created a review before")
	}

	review := &models.Review{Title: in.Title, Ratings: in.Ratings, UserID: user.ID, ProductID: in.ProductID}
	if err := tx.Create(review).Error; err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.RecalculateRating(ctx, review.ProductID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) owned(tx *gorm.DB, user *models.User, id uint, adminAllowed bool) (*models.Review, error) {
	var review models.Review
	err := tx.First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("There is no review with id %d", id)
	}
	if err != nil {
		return nil, err
	}

	if review.UserID != user.ID && !(adminAllowed && user.Role == models.RoleAdmin) {
		return nil, apperr.Forbidden("You are not allowed to perform this action")
	}
	return &review, nil
}

// Update changes a review of the caller.
func (s *ReviewService) Update(ctx context.Context, user *models.User, id uint, in ReviewUpdate) (*models.Review, error) {
	tx := s.db.WithContext(ctx)

	review, err := s.owned(tx, user, id, false)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if in.Title != nil {
		changes["title"] = *in.Title
		review.Title = *in.Title
	}
	if in.Ratings != nil {
		changes["ratings"] = *in.Ratings
		review.Ratings = *in.Ratings
	}
	if len(changes) > 0 {
		if err := tx.Model(review).Updates(changes).Error; err != nil {
			return nil, fmt.Errorf("update review %d: %w", id, err)
		}
	}

	if err := s.RecalculateRating(ctx, review.ProductID); err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes a review of the caller; admins may remove any review.
func (s *ReviewService) Delete(ctx context.Context, user *models.User, id uint) error {
	tx := s.db.WithContext(ctx)

	review, err := s.owned(tx, user, id, true)
	if err != nil {
		return err
	}
	if err := tx.Delete(review).Error; err != nil {
		return fmt.Errorf("delete review %d: %w", id, err)
	}

	return s.RecalculateRating(ctx, review.ProductID)
}

// RecalculateRating writes the average and count of the product's reviews
// back to the product, 0 and 0 when it has none.
func (s *ReviewService) RecalculateRating(ctx context.Context, productID uint) error {
	tx := s.db.WithContext(ctx)

	var agg struct {
		Average float64
		Count   int
	}
	err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(ratings), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("aggregate ratings of product %d: %w", productID, err)
	}

	err = tx.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]any{
		"ratings_average":  agg.Average,
		"ratings_quantity": agg.Count,
	}).Error
	if err != nil {
		return fmt.Errorf("update ratings of product %d: %w", productID, err)
	}
	return nil
}
