package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roadrunner/api-go/cache"
	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	choicesTTL        = 15 * time.Minute
	recentPlacesLimit = 5
)

// ChoicesCache keeps each user's city picker list. Cache failures are logged
// and otherwise ignored so they never fail a request.
type ChoicesCache struct {
	Store cache.Store
	Log   *zap.Logger
}

func (c *ChoicesCache) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *ChoicesCache) get(ctx context.Context, userID uint) ([]CityChoice, bool) {
	if c == nil || c.Store == nil {
		return nil, false
	}
	raw, err := c.Store.Get(ctx, cache.CityChoicesKey(userID))
	if err != nil {
		c.logger().Warn("city choices cache read failed", zap.Error(err), zap.Uint("user_id", userID))
		return nil, false
	}
	if raw == nil {
		return nil, false
	}
	var choices []CityChoice
	if err := json.Unmarshal(raw, &choices); err != nil {
		return nil, false
	}
	return choices, true
}

func (c *ChoicesCache) set(ctx context.Context, userID uint, choices []CityChoice) {
	if c == nil || c.Store == nil {
		return
	}
	raw, err := json.Marshal(choices)
	if err != nil {
		return
	}
	if err := c.Store.Set(ctx, cache.CityChoicesKey(userID), raw, choicesTTL); err != nil {
		c.logger().Warn("city choices cache write failed", zap.Error(err), zap.Uint("user_id", userID))
	}
}

func (c *ChoicesCache) invalidateUsers(ctx context.Context, userIDs ...uint) {
	if c == nil || c.Store == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = cache.CityChoicesKey(id)
	}
	if err := c.Store.Del(ctx, keys...); err != nil {
		c.logger().Warn("city choices cache invalidation failed", zap.Error(err), zap.Strings("keys", keys))
	}
}

// invalidateCity drops the entry of every user associated with cityID.
func (c *ChoicesCache) invalidateCity(ctx context.Context, db *gorm.DB, cityID uint) {
	if c == nil || c.Store == nil {
		return
	}
	var userIDs []uint
	err := db.WithContext(ctx).Table("user_cities").Where("city_id = ?", cityID).Pluck("user_id", &userIDs).Error
	if err != nil {
		c.logger().Warn("lookup of city users failed", zap.Error(err), zap.Uint("city_id", cityID))
		return
	}
	c.invalidateUsers(ctx, userIDs...)
}

type CityService struct {
	DB      *gorm.DB
	Storage storage.Storage
	Choices *ChoicesCache
}

func invalidCityPK(field string, id uint) *ValidationError {
	return FieldError(field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
}

// Create adds a city and associates it with the creating user.
func (s *CityService) Create(ctx context.Context, userID uint, name string) (*CityView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, FieldError("name", "This field may not be blank.")
	}
	if len([]rune(name)) > 100 {
		return nil, FieldError("name", "Ensure this field has no more than 100 characters.")
	}

	city := models.City{Name: name}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&city).Error; err != nil {
			return fmt.Errorf("create city: %w", err)
		}
		if err := tx.Model(&models.User{ID: userID}).Association("Cities").Append(&city); err != nil {
			return fmt.Errorf("associate city: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Choices.invalidateCity(ctx, s.DB, city.ID)
	return &CityView{ID: city.ID, Name: city.Name}, nil
}

// AddToUser associates an existing city with the user.
func (s *CityService) AddToUser(ctx context.Context, userID, cityID uint) (*CityView, error) {
	var city models.City
	if err := s.DB.WithContext(ctx).First(&city, cityID).Error; err != nil {
		return nil, notFound(err)
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{ID: userID}).Association("Cities").Append(&city); err != nil {
		return nil, fmt.Errorf("associate city: %w", err)
	}

	s.Choices.invalidateCity(ctx, s.DB, city.ID)
	return s.userCity(ctx, userID, cityID)
}

func (s *CityService) userCities(ctx context.Context, userID uint) *gorm.DB {
	return s.DB.WithContext(ctx).Model(&models.City{}).
		Select("cities.id, cities.name, COUNT(places.id) AS places_count").
		Joins("JOIN user_cities ON user_cities.city_id = cities.id AND user_cities.user_id = ?", userID).
		Joins("LEFT JOIN places ON places.city_id = cities.id").
		Group("cities.id, cities.name")
}

func (s *CityService) List(ctx context.Context, userID uint) ([]CityView, error) {
	cities := []CityView{}
	if err := s.userCities(ctx, userID).Order("cities.name").Scan(&cities).Error; err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

func (s *CityService) userCity(ctx context.Context, userID, cityID uint) (*CityView, error) {
	var cities []CityView
	err := s.userCities(ctx, userID).Where("cities.id = ?", cityID).Scan(&cities).Error
	if err != nil {
		return nil, fmt.Errorf("get city: %w", err)
	}
	if len(cities) == 0 {
		return nil, ErrNotFound
	}
	return &cities[0], nil
}

// Get returns one of the user's cities with its most recent places.
func (s *CityService) Get(ctx context.Context, userID, cityID uint) (*CityDetail, error) {
	city, err := s.userCity(ctx, userID, cityID)
	if err != nil {
		return nil, err
	}

	var places []models.Place
	err = s.DB.WithContext(ctx).
		Preload("City").Preload("Location").
		Where("city_id = ?", cityID).
		Order("created_at DESC").Limit(recentPlacesLimit).
		Find(&places).Error
	if err != nil {
		return nil, fmt.Errorf("recent places: %w", err)
	}
	counts, err := commentCounts(s.DB.WithContext(ctx), places)
	if err != nil {
		return nil, err
	}

	detail := &CityDetail{CityView: *city, RecentPlaces: make([]PlaceView, 0, len(places))}
	for i := range places {
		detail.RecentPlaces = append(detail.RecentPlaces, placeView(&places[i], counts[places[i].ID], s.Storage))
	}
	return detail, nil
}

// ChoicesFor returns the user's cities as {id, name} pairs for the map picker.
func (s *CityService) ChoicesFor(ctx context.Context, userID uint) ([]CityChoice, error) {
	if choices, ok := s.Choices.get(ctx, userID); ok {
		return choices, nil
	}

	choices := []CityChoice{}
	err := s.DB.WithContext(ctx).Model(&models.City{}).
		Select("cities.id, cities.name").
		Joins("JOIN user_cities ON user_cities.city_id = cities.id AND user_cities.user_id = ?", userID).
		Order("cities.name").
		Scan(&choices).Error
	if err != nil {
		return nil, fmt.Errorf("city choices: %w", err)
	}

	s.Choices.set(ctx, userID, choices)
	return choices, nil
}

// cityExists reports whether cityID refers to a stored city.
func cityExists(db *gorm.DB, cityID uint) (bool, error) {
	var city models.City
	err := db.Select("id").First(&city, cityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// commentCounts returns the number of comments per place id.
func commentCounts(db *gorm.DB, places []models.Place) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(places))
	if len(places) == 0 {
		return counts, nil
	}
	ids := make([]uint, len(places))
	for i, p := range places {
		ids[i] = p.ID
	}
	var rows []struct {
		PlaceID uint
		Count   int64
	}
	err := db.Model(&models.PlaceComment{}).
		Select("place_id, COUNT(*) AS count").
		Where("place_id IN ?", ids).
		Group("place_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	for _, r := range rows {
		counts[r.PlaceID] = r.Count
	}
	return counts, nil
}
