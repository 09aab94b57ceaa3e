package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TripInput struct {
	Name          string `json:"name" binding:"required,max=100"`
	StartDate     string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate       string `json:"end_date" binding:"required,datetime=2006-01-02"`
	DestinationID uint   `json:"destination_id" binding:"required"`
}

// Patch converts a full update into the partial form.
func (in TripInput) Patch() TripPatch {
	return TripPatch{Name: &in.Name, StartDate: &in.StartDate, EndDate: &in.EndDate, DestinationID: &in.DestinationID}
}

type TripPatch struct {
	Name          *string `json:"name" binding:"omitempty,max=100"`
	StartDate     *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate       *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	DestinationID *uint   `json:"destination_id"`
}

type TripService struct {
	DB      *gorm.DB
	Storage storage.Storage
	Log     *zap.Logger
}

func parseDate(verr *ValidationError, field, value string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		verr.Add(field, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
		return t, false
	}
	return t, true
}

// apply validates patch against trip and copies the accepted values onto it.
func (s *TripService) apply(tx *gorm.DB, trip *models.Trip, patch TripPatch) error {
	verr := NewValidationError()
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			verr.Add("name", "This field may not be blank.")
		}
		trip.Name = name
	}
	// The ordering check runs whenever both dates parsed, regardless of other fields.
	datesOK := true
	if patch.StartDate != nil {
		var ok bool
		trip.StartDate, ok = parseDate(verr, "start_date", *patch.StartDate)
		datesOK = datesOK && ok
	}
	if patch.EndDate != nil {
		var ok bool
		trip.EndDate, ok = parseDate(verr, "end_date", *patch.EndDate)
		datesOK = datesOK && ok
	}
	if datesOK && trip.StartDate.After(trip.EndDate) {
		verr.Add("end_date", "End date must be after start date.")
	}
	if patch.DestinationID != nil {
		ok, err := cityExists(tx, *patch.DestinationID)
		if err != nil {
			return err
		}
		if !ok {
			verr.Add("destination_id", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *patch.DestinationID))
		}
		trip.DestinationID = *patch.DestinationID
	}
	return verr.OrNil()
}

func (s *TripService) Create(ctx context.Context, userID uint, in TripInput) (*TripView, error) {
	trip := models.Trip{UserID: userID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.apply(tx, &trip, in.Patch()); err != nil {
			return err
		}
		if err := tx.Create(&trip).Error; err != nil {
			return fmt.Errorf("create trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, trip.ID)
}

func (s *TripService) preloaded(db *gorm.DB) *gorm.DB {
	return db.Preload("Destination").
		Preload("ChecklistItems", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at DESC, id DESC") })
}

func (s *TripService) List(ctx context.Context, userID uint) ([]TripView, error) {
	db := s.DB.WithContext(ctx)
	var trips []models.Trip
	if err := s.preloaded(db).Where("user_id = ?", userID).Order("start_date, id").Find(&trips).Error; err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return s.views(db, trips)
}

func (s *TripService) Get(ctx context.Context, userID, tripID uint) (*TripView, error) {
	db := s.DB.WithContext(ctx)
	var trip models.Trip
	if err := s.preloaded(db).Where("id = ? AND user_id = ?", tripID, userID).First(&trip).Error; err != nil {
		return nil, notFound(err)
	}
	views, err := s.views(db, []models.Trip{trip})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *TripService) Update(ctx context.Context, userID, tripID uint, patch TripPatch) (*TripView, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trip, err := Guard{DB: tx}.trip(tx, userID, tripID)
		if err != nil {
			return err
		}
		if err := s.apply(tx, trip, patch); err != nil {
			return err
		}
		err = tx.Model(trip).Select("name", "start_date", "end_date", "destination_id").Updates(trip).Error
		if err != nil {
			return fmt.Errorf("update trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, tripID)
}

// Delete removes the trip with its checklist and documents, then the document blobs.
func (s *TripService) Delete(ctx context.Context, userID, tripID uint) error {
	var keys []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trip, err := Guard{DB: tx}.trip(tx, userID, tripID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.TravelDocument{}).Where("trip_id = ?", trip.ID).Pluck("file", &keys).Error; err != nil {
			return fmt.Errorf("collect documents: %w", err)
		}
		if err := tx.Delete(trip).Error; err != nil {
			return fmt.Errorf("delete trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.Storage.Delete(ctx, key); err != nil {
			s.Log.Warn("document blob cleanup failed", zap.Error(err), zap.String("key", key), zap.Uint("trip_id", tripID))
		}
	}
	return nil
}

func (s *TripService) views(db *gorm.DB, trips []models.Trip) ([]TripView, error) {
	counts, err := placeCounts(db, trips)
	if err != nil {
		return nil, err
	}
	views := make([]TripView, 0, len(trips))
	for i := range trips {
		t := &trips[i]
		v := TripView{
			ID:        t.ID,
			Name:      t.Name,
			StartDate: t.StartDate.Format(dateLayout),
			EndDate:   t.EndDate.Format(dateLayout),
			Destination: CityView{
				ID:          t.Destination.ID,
				Name:        t.Destination.Name,
				PlacesCount: counts[t.DestinationID],
			},
			CreatedAt:      t.CreatedAt,
			ChecklistItems: t.ChecklistItems,
			Documents:      make([]DocumentView, 0, len(t.Documents)),
		}
		if v.ChecklistItems == nil {
			v.ChecklistItems = []models.ChecklistItem{}
		}
		for j := range t.Documents {
			v.Documents = append(v.Documents, documentView(&t.Documents[j], s.Storage))
		}
		views = append(views, v)
	}
	return views, nil
}

func placeCounts(db *gorm.DB, trips []models.Trip) (map[uint]int64, error) {
	counts := map[uint]int64{}
	if len(trips) == 0 {
		return counts, nil
	}
	ids := make([]uint, 0, len(trips))
	for _, t := range trips {
		ids = append(ids, t.DestinationID)
	}
	var rows []struct {
		CityID uint
		Count  int64
	}
	err := db.Model(&models.Place{}).
		Select("city_id, COUNT(*) AS count").
		Where("city_id IN ?", ids).
		Group("city_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count places: %w", err)
	}
	for _, r := range rows {
		counts[r.CityID] = r.Count
	}
	return counts, nil
}
