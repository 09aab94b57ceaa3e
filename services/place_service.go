package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const recentCommentsLimit = 5

// maxPrice is the largest value the decimal(10,2) price column holds.
const maxPrice = 99999999.99

// Upload is a file received from a multipart request.
type Upload struct {
	FileName    string
	Size        int64
	ContentType string
	Body        io.Reader
}

type PlaceInput struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" binding:"required,gte=0,lte=99999999.99"`
	CityID      uint     `json:"city_id" binding:"required"`
	Lat         *float64 `json:"lat" binding:"omitempty,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" binding:"omitempty,gte=-180,lte=180"`
}

type PlacePatch struct {
	Name        *string  `json:"name" binding:"omitempty,max=100"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0,lte=99999999.99"`
	CityID      *uint    `json:"city_id"`
	Lat         *float64 `json:"lat" binding:"omitempty,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" binding:"omitempty,gte=-180,lte=180"`
}

// PlaceFilter holds the list query parameters.
type PlaceFilter struct {
	PriceGTE         *float64 `form:"price_gte"`
	PriceLTE         *float64 `form:"price_lte"`
	AverageRatingGTE *float64 `form:"average_rating_gte"`
	AverageRatingLTE *float64 `form:"average_rating_lte"`
	Search           string   `form:"search"`
	Ordering         string   `form:"ordering"`
	Page             int      `form:"page"`
	PageSize         int      `form:"page_size"`
}

var placeOrderings = map[string]string{
	"name":           "places.name",
	"price":          "places.price",
	"average_rating": "places.average_rating",
	"created_at":     "places.created_at",
}

// orderClause turns an ordering parameter such as "-price" into SQL.
func orderClause(ordering string) (string, bool) {
	if ordering == "" {
		ordering = "-created_at"
	}
	desc := strings.HasPrefix(ordering, "-")
	col, ok := placeOrderings[strings.TrimPrefix(ordering, "-")]
	if !ok {
		return "", false
	}
	if desc {
		return col + " DESC, places.id DESC", true
	}
	return col + " ASC, places.id ASC", true
}

type PlaceService struct {
	DB      *gorm.DB
	Storage storage.Storage
	Choices *ChoicesCache
	Log     *zap.Logger
}

func checkPrice(verr *ValidationError, price float64) {
	switch {
	case price < 0:
		verr.Add("price", "Ensure this value is greater than or equal to 0.")
	case price > maxPrice:
		verr.Add("price", "Ensure this value is less than or equal to 99999999.99.")
	}
}

func (s *PlaceService) Create(ctx context.Context, userID uint, in PlaceInput) (*PlaceDetail, error) {
	verr := NewValidationError()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr.Add("name", "This field may not be blank.")
	}
	if in.Price == nil {
		verr.Add("price", "This field is required.")
	} else {
		checkPrice(verr, *in.Price)
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		verr.Add("location", "Both lat and lng are required.")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	place := models.Place{
		Name:        name,
		Description: in.Description,
		CityID:      in.CityID,
		Price:       *in.Price,
		CreatedByID: &userID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := cityExists(tx, in.CityID)
		if err != nil {
			return err
		}
		if !ok {
			return invalidCityPK("city_id", in.CityID)
		}
		if in.Lat != nil {
			loc, err := locationFor(tx, *in.Lat, *in.Lng)
			if err != nil {
				return err
			}
			place.LocationID = &loc.ID
		}
		if err := tx.Create(&place).Error; err != nil {
			return fmt.Errorf("create place: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Choices.invalidateCity(ctx, s.DB, place.CityID)
	return s.Get(ctx, userID, place.ID)
}

// locationFor returns the Location with exactly (lat, lng), creating it when missing.
// The insert skips on conflict so a concurrent creator never aborts the transaction.
func locationFor(tx *gorm.DB, lat, lng float64) (*models.Location, error) {
	loc := models.Location{Lat: lat, Lng: lng}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lat"}, {Name: "lng"}},
		DoNothing: true,
	}).Create(&loc).Error
	if err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	if loc.ID == 0 {
		if err := tx.Where("lat = ? AND lng = ?", lat, lng).First(&loc).Error; err != nil {
			return nil, fmt.Errorf("resolve location: %w", err)
		}
	}
	return &loc, nil
}

func (s *PlaceService) load(db *gorm.DB, placeID uint) (*models.Place, error) {
	var place models.Place
	if err := db.Preload("City").Preload("Location").First(&place, placeID).Error; err != nil {
		return nil, notFound(err)
	}
	return &place, nil
}

// Get returns the place page, including the requester's own rating and visit.
func (s *PlaceService) Get(ctx context.Context, userID, placeID uint) (*PlaceDetail, error) {
	db := s.DB.WithContext(ctx)
	place, err := s.load(db, placeID)
	if err != nil {
		return nil, err
	}

	detail := &PlaceDetail{RecentComments: []CommentView{}}
	var commentsCount int64
	if err := db.Model(&models.PlaceComment{}).Where("place_id = ?", placeID).Count(&commentsCount).Error; err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	if err := db.Model(&models.PlaceRating{}).Where("place_id = ?", placeID).Count(&detail.RatingsCount).Error; err != nil {
		return nil, fmt.Errorf("count ratings: %w", err)
	}
	if err := db.Model(&models.UserPlaceVisit{}).Where("place_id = ?", placeID).Count(&detail.VisitsCount).Error; err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}
	detail.PlaceView = placeView(place, commentsCount, s.Storage)

	var comments []models.PlaceComment
	err = db.Preload("User").
		Where("place_id = ?", placeID).
		Order("created_at DESC, id DESC").
		Limit(recentCommentsLimit).
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("recent comments: %w", err)
	}
	for i := range comments {
		detail.RecentComments = append(detail.RecentComments, commentView(&comments[i]))
	}

	var ratings []int
	err = db.Model(&models.PlaceRating{}).
		Where("place_id = ? AND user_id = ?", placeID, userID).
		Limit(1).
		Pluck("rating", &ratings).Error
	if err != nil {
		return nil, fmt.Errorf("user rating: %w", err)
	}
	if len(ratings) > 0 {
		detail.UserRating = &ratings[0]
	}

	var visits int64
	if err := db.Model(&models.UserPlaceVisit{}).Where("place_id = ? AND user_id = ?", placeID, userID).Count(&visits).Error; err != nil {
		return nil, fmt.Errorf("user visit: %w", err)
	}
	detail.UserVisited = visits > 0
	return detail, nil
}

// owned loads a place for modification. A place the user did not create reads as missing.
func (s *PlaceService) owned(db *gorm.DB, userID, placeID uint) (*models.Place, error) {
	var place models.Place
	if err := db.Where("id = ? AND created_by_id = ?", placeID, userID).First(&place).Error; err != nil {
		return nil, notFound(err)
	}
	return &place, nil
}

func (s *PlaceService) Update(ctx context.Context, userID, placeID uint, in PlacePatch) (*PlaceDetail, error) {
	verr := NewValidationError()
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		verr.Add("name", "This field may not be blank.")
	}
	if in.Price != nil {
		checkPrice(verr, *in.Price)
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		verr.Add("location", "Both lat and lng are required.")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	var oldCity, newCity uint
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		place, err := s.owned(tx, userID, placeID)
		if err != nil {
			return err
		}
		oldCity, newCity = place.CityID, place.CityID

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Price != nil {
			updates["price"] = *in.Price
		}
		if in.CityID != nil && *in.CityID != place.CityID {
			ok, err := cityExists(tx, *in.CityID)
			if err != nil {
				return err
			}
			if !ok {
				return invalidCityPK("city_id", *in.CityID)
			}
			updates["city_id"] = *in.CityID
			newCity = *in.CityID
		}
		if in.Lat != nil {
			loc, err := locationFor(tx, *in.Lat, *in.Lng)
			if err != nil {
				return err
			}
			updates["location_id"] = loc.ID
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(place).Updates(updates).Error; err != nil {
			return fmt.Errorf("update place: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Choices.invalidateCity(ctx, s.DB, oldCity)
	if newCity != oldCity {
		s.Choices.invalidateCity(ctx, s.DB, newCity)
	}
	return s.Get(ctx, userID, placeID)
}

// Delete removes a place the user created, then its photo blob.
func (s *PlaceService) Delete(ctx context.Context, userID, placeID uint) error {
	db := s.DB.WithContext(ctx)
	place, err := s.owned(db, userID, placeID)
	if err != nil {
		return err
	}
	if err := db.Delete(&models.Place{}, place.ID).Error; err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	s.removeBlob(ctx, place.Photo)
	s.Choices.invalidateCity(ctx, s.DB, place.CityID)
	return nil
}

// SetPhoto stores a new photo for the place and drops the previous blob.
func (s *PlaceService) SetPhoto(ctx context.Context, userID, placeID uint, file Upload) (*PlaceDetail, error) {
	if !storage.IsImage(file.FileName) {
		return nil, FieldError("photo", imageExtensionMessage(file.FileName))
	}
	db := s.DB.WithContext(ctx)
	place, err := s.owned(db, userID, placeID)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey("places", place.ID, file.FileName)
	if err := s.Storage.Put(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}
	if err := db.Model(place).Update("photo", key).Error; err != nil {
		s.removeBlob(ctx, key)
		return nil, fmt.Errorf("save photo: %w", err)
	}
	s.removeBlob(ctx, place.Photo)
	return s.Get(ctx, userID, placeID)
}

func (s *PlaceService) RemovePhoto(ctx context.Context, userID, placeID uint) error {
	db := s.DB.WithContext(ctx)
	place, err := s.owned(db, userID, placeID)
	if err != nil {
		return err
	}
	if place.Photo == "" {
		return BadRequest("No photo to remove.")
	}
	if err := db.Model(place).Update("photo", "").Error; err != nil {
		return fmt.Errorf("clear photo: %w", err)
	}
	s.removeBlob(ctx, place.Photo)
	return nil
}

func (s *PlaceService) removeBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.Storage.Delete(ctx, key); err != nil {
		s.Log.Warn("blob cleanup failed", zap.Error(err), zap.String("key", key))
	}
}

// List returns the places of a city matching filter, one page at a time.
func (s *PlaceService) List(ctx context.Context, cityID uint, f PlaceFilter) ([]PlaceView, Page, error) {
	number, size := NormalizePage(f.Page, f.PageSize)
	page := Page{Number: number, Size: size}

	order, ok := orderClause(f.Ordering)
	if !ok {
		return nil, page, FieldError("ordering", fmt.Sprintf("Invalid ordering %q.", f.Ordering))
	}

	db := s.DB.WithContext(ctx)
	ok, err := cityExists(db, cityID)
	if err != nil {
		return nil, page, err
	}
	if !ok {
		return nil, page, ErrNotFound
	}

	q := db.Model(&models.Place{}).Where("places.city_id = ?", cityID)
	if f.PriceGTE != nil {
		q = q.Where("places.price >= ?", *f.PriceGTE)
	}
	if f.PriceLTE != nil {
		q = q.Where("places.price <= ?", *f.PriceLTE)
	}
	if f.AverageRatingGTE != nil {
		q = q.Where("places.average_rating >= ?", *f.AverageRatingGTE)
	}
	if f.AverageRatingLTE != nil {
		q = q.Where("places.average_rating <= ?", *f.AverageRatingLTE)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(term) + "%"
		q = q.Where("(places.name ILIKE ? OR places.description ILIKE ?)", like, like)
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&page.Total).Error; err != nil {
		return nil, page, fmt.Errorf("count places: %w", err)
	}

	var places []models.Place
	err = q.Preload("City").Preload("Location").
		Order(order).
		Offset(page.offset()).Limit(page.Size).
		Find(&places).Error
	if err != nil {
		return nil, page, fmt.Errorf("list places: %w", err)
	}
	counts, err := commentCounts(db, places)
	if err != nil {
		return nil, page, err
	}

	views := make([]PlaceView, 0, len(places))
	for i := range places {
		views = append(views, placeView(&places[i], counts[places[i].ID], s.Storage))
	}
	return views, page, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func imageExtensionMessage(fileName string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	return fmt.Sprintf("File extension \"%s\" is not allowed. Allowed extensions are: jpg, jpeg, png, gif.", ext)
}
