package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/services"
	"go.uber.org/zap"
)

type CityService interface {
	Create(ctx context.Context, userID uint, name string) (*services.CityView, error)
	AddToUser(ctx context.Context, userID, cityID uint) (*services.CityView, error)
	List(ctx context.Context, userID uint) ([]services.CityView, error)
	Get(ctx context.Context, userID, cityID uint) (*services.CityDetail, error)
	ChoicesFor(ctx context.Context, userID uint) ([]services.CityChoice, error)
}

type CityController struct {
	Cities CityService
	Places PlaceService
	Log    *zap.Logger
}

func NewCityController(cities CityService, places PlaceService, log *zap.Logger) *CityController {
	return &CityController{Cities: cities, Places: places, Log: log}
}

// @Summary Create a city and add it to the current user
// @Tags cities
// @Security BearerAuth
// @Success 201 {object} services.CityView
// @Router /cities [post]
func (cc *CityController) CreateCity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	city, err := cc.Cities.Create(c.Request.Context(), userID, input.Name)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, city)
}

// @Summary Add an existing city to the current user
// @Tags cities
// @Security BearerAuth
// @Router /cities/add [post]
func (cc *CityController) AddCity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input struct {
		CityID uint `json:"city_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	city, err := cc.Cities.AddToUser(c.Request.Context(), userID, input.CityID)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "City not found"})
		return
	}
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "City added successfully", "city": city})
}

// @Summary List the current user's cities
// @Tags cities
// @Security BearerAuth
// @Router /cities [get]
func (cc *CityController) ListCities(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cities, err := cc.Cities.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}

// @Summary City id/name pairs for the map picker
// @Tags cities
// @Security BearerAuth
// @Router /cities/choices [get]
func (cc *CityController) CityChoices(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	choices, err := cc.Cities.ChoicesFor(c.Request.Context(), userID)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, choices)
}

// @Summary Get one of the current user's cities
// @Tags cities
// @Security BearerAuth
// @Param id path integer true "City ID"
// @Router /cities/{id} [get]
func (cc *CityController) GetCity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cityID, ok := idParam(c, "id")
	if !ok {
		return
	}

	city, err := cc.Cities.Get(c.Request.Context(), userID, cityID)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "City not found or not associated with user"})
		return
	}
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

// ListPlaces lists a city's places with filters, search, ordering and pages.
// @Summary List places in a city
// @Tags cities
// @Security BearerAuth
// @Param id path integer true "City ID"
// @Param price_gte query number false "Minimum price"
// @Param price_lte query number false "Maximum price"
// @Param average_rating_gte query number false "Minimum average rating"
// @Param average_rating_lte query number false "Maximum average rating"
// @Param search query string false "Substring of name or description"
// @Param ordering query string false "name, price, average_rating or created_at, '-' for descending"
// @Param page query integer false "Page number (default: 1)"
// @Param page_size query integer false "Page size (default: 20, max: 100)"
// @Success 200 {object} StandardResponse
// @Router /cities/{id}/places [get]
func (cc *CityController) ListPlaces(c *gin.Context) {
	cityID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var filter services.PlaceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}

	places, page, err := cc.Places.List(c.Request.Context(), cityID, filter)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, paginated(places, page))
}
