package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCities struct {
	CityService
	mine map[uint]bool
}

func (f *fakeCities) AddToUser(_ context.Context, _, cityID uint) (*services.CityView, error) {
	if cityID != 1 {
		return nil, services.ErrNotFound
	}
	f.mine[cityID] = true
	return &services.CityView{ID: cityID, Name: "Paris"}, nil
}

func (f *fakeCities) Get(_ context.Context, _, cityID uint) (*services.CityDetail, error) {
	if !f.mine[cityID] {
		return nil, services.ErrNotFound
	}
	return &services.CityDetail{CityView: services.CityView{ID: cityID, Name: "Paris"}}, nil
}

type fakePlaces struct {
	PlaceService
	filter services.PlaceFilter
	cityID uint
}

func (f *fakePlaces) List(_ context.Context, cityID uint, filter services.PlaceFilter) ([]services.PlaceView, services.Page, error) {
	f.cityID = cityID
	f.filter = filter
	return []services.PlaceView{{ID: 1, Name: "Louvre"}}, services.Page{Number: 2, Size: 1, Total: 3}, nil
}

func (f *fakePlaces) Get(_ context.Context, _, placeID uint) (*services.PlaceDetail, error) {
	return &services.PlaceDetail{PlaceView: services.PlaceView{ID: placeID}}, nil
}

type fakeRatings struct {
	rated int
	err   error
}

func (f *fakeRatings) Rate(_ context.Context, userID, placeID uint, rating int) (*models.PlaceRating, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rated = rating
	return &models.PlaceRating{ID: 1, UserID: userID, PlaceID: placeID, Rating: rating}, nil
}

func (f *fakeRatings) Remove(context.Context, uint, uint) error {
	return f.err
}

type fakeVisits struct {
	notes []string
}

func (f *fakeVisits) MarkVisited(_ context.Context, userID, placeID uint, notes string) (*models.UserPlaceVisit, error) {
	f.notes = append(f.notes, notes)
	return &models.UserPlaceVisit{UserID: userID, PlaceID: placeID, Notes: notes}, nil
}

func TestCityLookupMessages(t *testing.T) {
	cities := &fakeCities{mine: map[uint]bool{}}
	cc := NewCityController(cities, &fakePlaces{}, zap.NewNop())
	r := newRouter()
	r.POST("/cities/add", cc.AddCity)
	r.GET("/cities/:id", cc.GetCity)

	w := doJSON(t, r, http.MethodGet, "/cities/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"City not found or not associated with user"}`, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/cities/add", map[string]uint{"city_id": 99})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"City not found"}`, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/cities/add", map[string]uint{"city_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "City added successfully", decode(t, w)["message"])

	w = doJSON(t, r, http.MethodGet, "/cities/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListPlacesPassesFilterAndPaginates(t *testing.T) {
	places := &fakePlaces{}
	cc := NewCityController(&fakeCities{}, places, zap.NewNop())
	r := newRouter()
	r.GET("/cities/:id/places", cc.ListPlaces)

	w := doJSON(t, r, http.MethodGet, "/cities/5/places?price_lte=20&search=museum&ordering=-average_rating&page=2&page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, uint(5), places.cityID)
	require.NotNil(t, places.filter.PriceLTE)
	assert.Equal(t, 20.0, *places.filter.PriceLTE)
	assert.Nil(t, places.filter.PriceGTE)
	assert.Equal(t, "museum", places.filter.Search)
	assert.Equal(t, "-average_rating", places.filter.Ordering)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["data"], 1)
	assert.Equal(t, map[string]interface{}{
		"currentPage": 2.0, "pageSize": 1.0, "totalItems": 3.0, "totalPages": 3.0,
	}, body["pagination"])
}

func TestListPlacesRejectsBadNumbers(t *testing.T) {
	cc := NewCityController(&fakeCities{}, &fakePlaces{}, zap.NewNop())
	r := newRouter()
	r.GET("/cities/:id/places", cc.ListPlaces)

	w := doJSON(t, r, http.MethodGet, "/cities/5/places?price_gte=cheap", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func newPlaceRouter(ratings *fakeRatings, visits *fakeVisits) http.Handler {
	pc := &PlaceController{Places: &fakePlaces{}, Ratings: ratings, Visits: visits, Log: zap.NewNop()}
	r := newRouter()
	r.GET("/places/:id", pc.GetPlace)
	r.POST("/places/:id/ratings", pc.RatePlace)
	r.DELETE("/places/:id/ratings", pc.RemoveRating)
	r.PATCH("/places/:id/visit", pc.MarkVisited)
	return r
}

func TestPlaceIDMustBeNumeric(t *testing.T) {
	w := doJSON(t, newPlaceRouter(&fakeRatings{}, &fakeVisits{}), http.MethodGet, "/places/louvre", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRatePlaceBounds(t *testing.T) {
	ratings := &fakeRatings{}
	r := newPlaceRouter(ratings, &fakeVisits{})

	for _, bad := range []int{0, 6} {
		w := doJSON(t, r, http.MethodPost, "/places/3/ratings", map[string]int{"rating": bad})
		assert.Equal(t, http.StatusBadRequest, w.Code, "rating %d", bad)
		assert.Contains(t, decode(t, w)["fields"], "rating")
	}
	assert.Zero(t, ratings.rated)

	w := doJSON(t, r, http.MethodPost, "/places/3/ratings", map[string]int{"rating": 4})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 4, ratings.rated)
	assert.Equal(t, 4.0, decode(t, w)["rating"])
}

func TestRemoveMissingRating(t *testing.T) {
	r := newPlaceRouter(&fakeRatings{err: services.ErrNotFound}, &fakeVisits{})
	w := doJSON(t, r, http.MethodDelete, "/places/3/ratings", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	r = newPlaceRouter(&fakeRatings{err: errors.New("db down")}, &fakeVisits{})
	w = doJSON(t, r, http.MethodDelete, "/places/3/ratings", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMarkVisitedBodyIsOptional(t *testing.T) {
	visits := &fakeVisits{}
	r := newPlaceRouter(&fakeRatings{}, visits)

	w := doJSON(t, r, http.MethodPatch, "/places/3/visit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Place marked as visited.", decode(t, w)["message"])

	w = doJSON(t, r, http.MethodPatch, "/places/3/visit", map[string]string{"notes": "great view"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"", "great view"}, visits.notes)
}

func TestPlacePriceMustFitColumn(t *testing.T) {
	pc := &PlaceController{Places: &fakePlaces{}, Log: zap.NewNop()}
	r := newRouter()
	r.POST("/places", pc.CreatePlace)
	r.PATCH("/places/:id", pc.UpdatePlace)

	w := doJSON(t, r, http.MethodPost, "/places", map[string]interface{}{
		"name": "Louvre", "city_id": 1, "price": 100000000.0,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields, ok := decode(t, w)["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"Ensure this value is less than or equal to 99999999.99."}, fields["price"])

	w = doJSON(t, r, http.MethodPatch, "/places/3", map[string]interface{}{"price": 1e12})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "price")
}
