package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/roadrunner/api-go/models"
	"gorm.io/gorm"
)

const checklistDenied = "You don't have permission to add items to this trip."

type ChecklistInput struct {
	TripID   uint   `json:"trip_id" binding:"required"`
	Name     string `json:"name" binding:"required,max=100"`
	IsPacked bool   `json:"is_packed"`
}

type ChecklistPatch struct {
	TripID   *uint   `json:"trip_id"`
	Name     *string `json:"name" binding:"omitempty,max=100"`
	IsPacked *bool   `json:"is_packed"`
}

// BulkItem is one entry of a bulk update request.
type BulkItem struct {
	ID       uint    `json:"id" binding:"required"`
	Name     *string `json:"name" binding:"omitempty,max=100"`
	IsPacked *bool   `json:"is_packed"`
}

func (p ChecklistPatch) columns() (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, FieldError("name", "This field may not be blank.")
		}
		updates["name"] = name
	}
	if p.IsPacked != nil {
		updates["is_packed"] = *p.IsPacked
	}
	if p.TripID != nil {
		updates["trip_id"] = *p.TripID
	}
	return updates, nil
}

type ChecklistService struct {
	DB    *gorm.DB
	Guard Guard
}

func (s *ChecklistService) Create(ctx context.Context, userID uint, in ChecklistInput) (*models.ChecklistItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, FieldError("name", "This field may not be blank.")
	}
	db := s.DB.WithContext(ctx)
	if err := s.Guard.requireTrip(db, userID, in.TripID, checklistDenied); err != nil {
		return nil, err
	}

	item := models.ChecklistItem{TripID: in.TripID, Name: name, IsPacked: in.IsPacked}
	if err := db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create checklist item: %w", err)
	}
	return &item, nil
}

func (s *ChecklistService) userItems(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&models.ChecklistItem{}).
		Joins("JOIN trips ON trips.id = checklist_items.trip_id").
		Where("trips.user_id = ?", userID)
}

// List returns every checklist item across the user's trips.
func (s *ChecklistService) List(ctx context.Context, userID uint) ([]models.ChecklistItem, error) {
	items := []models.ChecklistItem{}
	if err := s.userItems(s.DB.WithContext(ctx), userID).Order("checklist_items.id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	return items, nil
}

func (s *ChecklistService) ByTrip(ctx context.Context, userID, tripID uint) ([]models.ChecklistItem, error) {
	if _, err := s.Guard.Trip(ctx, userID, tripID); err != nil {
		return nil, err
	}
	items := []models.ChecklistItem{}
	if err := s.DB.WithContext(ctx).Where("trip_id = ?", tripID).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	return items, nil
}

func (s *ChecklistService) Get(ctx context.Context, userID, itemID uint) (*models.ChecklistItem, error) {
	return s.Guard.ChecklistItem(ctx, userID, itemID)
}

func (s *ChecklistService) Update(ctx context.Context, userID, itemID uint, patch ChecklistPatch) (*models.ChecklistItem, error) {
	updates, err := patch.columns()
	if err != nil {
		return nil, err
	}

	var item *models.ChecklistItem
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.Guard.checklistItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		if patch.TripID != nil && *patch.TripID != item.TripID {
			if err := s.Guard.requireTrip(tx, userID, *patch.TripID, checklistDenied); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(item).Updates(updates).Error; err != nil {
			return fmt.Errorf("update checklist item: %w", err)
		}
		return tx.First(item, item.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ChecklistService) Delete(ctx context.Context, userID, itemID uint) error {
	db := s.DB.WithContext(ctx)
	item, err := s.Guard.checklistItem(db, userID, itemID)
	if err != nil {
		return err
	}
	if err := db.Delete(item).Error; err != nil {
		return fmt.Errorf("delete checklist item: %w", err)
	}
	return nil
}

// TogglePacked flips is_packed and leaves every other column untouched.
func (s *ChecklistService) TogglePacked(ctx context.Context, userID, itemID uint) (*models.ChecklistItem, error) {
	var item *models.ChecklistItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.Guard.checklistItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Model(item).Update("is_packed", gorm.Expr("NOT is_packed")).Error; err != nil {
			return fmt.Errorf("toggle checklist item: %w", err)
		}
		return tx.First(item, item.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// BulkUpdate applies every change or none. All ids must belong to the
// user's trips, otherwise nothing is written and ErrNotFound is returned.
func (s *ChecklistService) BulkUpdate(ctx context.Context, userID uint, changes []BulkItem) ([]models.ChecklistItem, error) {
	if len(changes) == 0 {
		return nil, BadRequest("No items provided")
	}

	ids := make([]int64, 0, len(changes))
	seen := make(map[uint]bool, len(changes))
	for _, c := range changes {
		if !seen[c.ID] {
			seen[c.ID] = true
			ids = append(ids, int64(c.ID))
		}
	}

	items := []models.ChecklistItem{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		err := s.userItems(tx, userID).
			Where("checklist_items.id = ANY(?)", pq.Array(ids)).
			Count(&owned).Error
		if err != nil {
			return fmt.Errorf("check ownership: %w", err)
		}
		if owned != int64(len(ids)) {
			return ErrNotFound
		}

		for _, c := range changes {
			updates, err := ChecklistPatch{Name: c.Name, IsPacked: c.IsPacked}.columns()
			if err != nil {
				return err
			}
			if len(updates) == 0 {
				continue
			}
			if err := tx.Model(&models.ChecklistItem{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("update checklist item %d: %w", c.ID, err)
			}
		}
		return tx.Where("id = ANY(?)", pq.Array(ids)).Order("id").Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
