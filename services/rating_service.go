package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/roadrunner/api-go/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingService struct {
	DB *gorm.DB
}

// lockPlace reads the place's aggregate and holds its row lock until the
// transaction ends, which serializes concurrent rating writes per place.
func lockPlace(tx *gorm.DB, placeID uint) (ratingAggregate, error) {
	var place models.Place
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "rating_sum", "total_ratings").
		First(&place, placeID).Error
	if err != nil {
		return ratingAggregate{}, notFound(err)
	}
	return ratingAggregate{Sum: place.RatingSum, Count: place.TotalRatings}, nil
}

func storeAggregate(tx *gorm.DB, placeID uint, agg ratingAggregate) error {
	err := tx.Model(&models.Place{}).Where("id = ?", placeID).UpdateColumns(agg.columns()).Error
	if err != nil {
		return fmt.Errorf("update rating aggregate: %w", err)
	}
	return nil
}

// Rate creates or replaces the user's rating of a place and updates the
// place aggregate in the same transaction.
func (s *RatingService) Rate(ctx context.Context, userID, placeID uint, rating int) (*models.PlaceRating, error) {
	if rating < 1 || rating > 5 {
		return nil, FieldError("rating", "Ensure this value is between 1 and 5.")
	}

	var result models.PlaceRating
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agg, err := lockPlace(tx, placeID)
		if err != nil {
			return err
		}

		var existing models.PlaceRating
		err = tx.Where("user_id = ? AND place_id = ?", userID, placeID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			result = models.PlaceRating{UserID: userID, PlaceID: placeID, Rating: rating}
			if err := tx.Create(&result).Error; err != nil {
				return fmt.Errorf("create rating: %w", err)
			}
			agg = agg.add(rating)
		case err != nil:
			return fmt.Errorf("load rating: %w", err)
		default:
			old := existing.Rating
			existing.Rating = rating
			if err := tx.Model(&existing).Update("rating", rating).Error; err != nil {
				return fmt.Errorf("update rating: %w", err)
			}
			result = existing
			agg = agg.replace(old, rating)
		}
		return storeAggregate(tx, placeID, agg)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Remove deletes the user's rating of a place and takes it out of the aggregate.
func (s *RatingService) Remove(ctx context.Context, userID, placeID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agg, err := lockPlace(tx, placeID)
		if err != nil {
			return err
		}

		var existing models.PlaceRating
		err = tx.Where("user_id = ? AND place_id = ?", userID, placeID).First(&existing).Error
		if err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&existing).Error; err != nil {
			return fmt.Errorf("delete rating: %w", err)
		}
		return storeAggregate(tx, placeID, agg.remove(existing.Rating))
	})
}
