package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/roadrunner/api-go/models"
	"gorm.io/gorm"
)

// Guard resolves trip-scoped resources for a user. Anything that does not
// belong to one of the user's trips reads as ErrNotFound.
type Guard struct {
	DB *gorm.DB
}

func (g Guard) Trip(ctx context.Context, userID, tripID uint) (*models.Trip, error) {
	return g.trip(g.DB.WithContext(ctx), userID, tripID)
}

func (g Guard) trip(db *gorm.DB, userID, tripID uint) (*models.Trip, error) {
	var trip models.Trip
	err := db.Where("id = ? AND user_id = ?", tripID, userID).First(&trip).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &trip, nil
}

func (g Guard) ChecklistItem(ctx context.Context, userID, itemID uint) (*models.ChecklistItem, error) {
	return g.checklistItem(g.DB.WithContext(ctx), userID, itemID)
}

func (g Guard) checklistItem(db *gorm.DB, userID, itemID uint) (*models.ChecklistItem, error) {
	var item models.ChecklistItem
	err := db.Joins("JOIN trips ON trips.id = checklist_items.trip_id").
		Where("checklist_items.id = ? AND trips.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (g Guard) Document(ctx context.Context, userID, docID uint) (*models.TravelDocument, error) {
	return g.document(g.DB.WithContext(ctx), userID, docID)
}

func (g Guard) document(db *gorm.DB, userID, docID uint) (*models.TravelDocument, error) {
	var doc models.TravelDocument
	err := db.Joins("JOIN trips ON trips.id = travel_documents.trip_id").
		Where("travel_documents.id = ? AND trips.user_id = ?", docID, userID).
		First(&doc).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

// requireTrip is the create-time check: a missing or foreign trip is a
// validation failure on trip_id rather than a 404.
func (g Guard) requireTrip(db *gorm.DB, userID, tripID uint, denied string) error {
	var trip models.Trip
	err := db.Select("id", "user_id").First(&trip, tripID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return FieldError("trip_id", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", tripID))
	}
	if err != nil {
		return err
	}
	if trip.UserID != userID {
		return FieldError("trip_id", denied)
	}
	return nil
}
