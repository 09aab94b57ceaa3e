package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	documentDenied = "You don't have permission to add documents to this trip."
	documentPrefix = "travel_documents"
)

type DocumentInput struct {
	TripID uint   `form:"trip_id" binding:"required"`
	Name   string `form:"name" binding:"required,max=100"`
}

type DocumentService struct {
	DB      *gorm.DB
	Storage storage.Storage
	Guard   Guard
	Log     *zap.Logger
}

// Upload stores the file and then the row. A failed insert removes the blob again.
func (s *DocumentService) Upload(ctx context.Context, userID uint, in DocumentInput, file *Upload) (*DocumentView, error) {
	verr := NewValidationError()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr.Add("name", "This field may not be blank.")
	}
	if file == nil || file.Size == 0 {
		verr.Add("file", "No file was submitted.")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	db := s.DB.WithContext(ctx)
	if err := s.Guard.requireTrip(db, userID, in.TripID, documentDenied); err != nil {
		return nil, err
	}

	key := storage.NewKey(documentPrefix, in.TripID, file.FileName)
	if err := s.Storage.Put(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	doc := models.TravelDocument{TripID: in.TripID, UserID: userID, Name: name, File: key}
	if err := db.Create(&doc).Error; err != nil {
		if derr := s.Storage.Delete(ctx, key); derr != nil {
			s.Log.Warn("orphaned document blob", zap.Error(derr), zap.String("key", key))
		}
		return nil, fmt.Errorf("create document: %w", err)
	}
	view := documentView(&doc, s.Storage)
	return &view, nil
}

func (s *DocumentService) views(docs []models.TravelDocument) []DocumentView {
	views := make([]DocumentView, 0, len(docs))
	for i := range docs {
		views = append(views, documentView(&docs[i], s.Storage))
	}
	return views
}

func (s *DocumentService) List(ctx context.Context, userID uint) ([]DocumentView, error) {
	var docs []models.TravelDocument
	err := s.DB.WithContext(ctx).
		Joins("JOIN trips ON trips.id = travel_documents.trip_id").
		Where("trips.user_id = ?", userID).
		Order("travel_documents.uploaded_at DESC, travel_documents.id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return s.views(docs), nil
}

func (s *DocumentService) ByTrip(ctx context.Context, userID, tripID uint) ([]DocumentView, error) {
	if _, err := s.Guard.Trip(ctx, userID, tripID); err != nil {
		return nil, err
	}
	var docs []models.TravelDocument
	err := s.DB.WithContext(ctx).Where("trip_id = ?", tripID).Order("uploaded_at DESC, id DESC").Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return s.views(docs), nil
}

func (s *DocumentService) Get(ctx context.Context, userID, docID uint) (*DocumentView, error) {
	doc, err := s.Guard.Document(ctx, userID, docID)
	if err != nil {
		return nil, err
	}
	view := documentView(doc, s.Storage)
	return &view, nil
}

func (s *DocumentService) Rename(ctx context.Context, userID, docID uint, name string) (*DocumentView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, BadRequest("New name is required")
	}
	if len([]rune(name)) > 100 {
		return nil, FieldError("name", "Ensure this field has no more than 100 characters.")
	}

	db := s.DB.WithContext(ctx)
	doc, err := s.Guard.document(db, userID, docID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(doc).Update("name", name).Error; err != nil {
		return nil, fmt.Errorf("rename document: %w", err)
	}
	doc.Name = name
	view := documentView(doc, s.Storage)
	return &view, nil
}

// Delete removes the row and its blob together. The blob is deleted inside the
// transaction, so a storage failure leaves the row in place.
func (s *DocumentService) Delete(ctx context.Context, userID, docID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.Guard.document(tx, userID, docID)
		if err != nil {
			return err
		}
		if err := tx.Delete(doc).Error; err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		if err := s.Storage.Delete(ctx, doc.File); err != nil {
			return fmt.Errorf("delete document blob: %w", err)
		}
		return nil
	})
}
