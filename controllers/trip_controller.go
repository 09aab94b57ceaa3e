package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/services"
	"go.uber.org/zap"
)

type TripService interface {
	Create(ctx context.Context, userID uint, in services.TripInput) (*services.TripView, error)
	List(ctx context.Context, userID uint) ([]services.TripView, error)
	Get(ctx context.Context, userID, tripID uint) (*services.TripView, error)
	Update(ctx context.Context, userID, tripID uint, patch services.TripPatch) (*services.TripView, error)
	Delete(ctx context.Context, userID, tripID uint) error
}

// TripController serves the caller's trips. Trips of other users read as missing.
type TripController struct {
	Trips TripService
	Log   *zap.Logger
}

func (tc *TripController) ListTrips(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	trips, err := tc.Trips.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, tc.Log, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

func (tc *TripController) CreateTrip(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input services.TripInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	trip, err := tc.Trips.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, tc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (tc *TripController) GetTrip(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tripID, ok := idParam(c, "id")
	if !ok {
		return
	}
	trip, err := tc.Trips.Get(c.Request.Context(), userID, tripID)
	if err != nil {
		respondError(c, tc.Log, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// ReplaceTrip handles PUT, which requires every field.
func (tc *TripController) ReplaceTrip(c *gin.Context) {
	tc.update(c, func() (services.TripPatch, error) {
		var input services.TripInput
		if err := c.ShouldBindJSON(&input); err != nil {
			return services.TripPatch{}, err
		}
		return input.Patch(), nil
	})
}

func (tc *TripController) UpdateTrip(c *gin.Context) {
	tc.update(c, func() (services.TripPatch, error) {
		var patch services.TripPatch
		err := c.ShouldBindJSON(&patch)
		return patch, err
	})
}

func (tc *TripController) update(c *gin.Context, bind func() (services.TripPatch, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tripID, ok := idParam(c, "id")
	if !ok {
		return
	}
	patch, err := bind()
	if err != nil {
		respondBindError(c, err)
		return
	}

	trip, err := tc.Trips.Update(c.Request.Context(), userID, tripID, patch)
	if err != nil {
		respondError(c, tc.Log, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (tc *TripController) DeleteTrip(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tripID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := tc.Trips.Delete(c.Request.Context(), userID, tripID); err != nil {
		respondError(c, tc.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
