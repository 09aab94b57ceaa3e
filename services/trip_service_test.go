package services

import (
	"testing"

	"github.com/roadrunner/api-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestApplyReportsDateOrderAlongsideOtherErrors(t *testing.T) {
	var trip models.Trip
	err := (&TripService{}).apply(nil, &trip, TripPatch{
		Name:      strPtr("  "),
		StartDate: strPtr("2024-06-10"),
		EndDate:   strPtr("2024-06-01"),
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"This field may not be blank."}, verr.Fields["name"])
	assert.Equal(t, []string{"End date must be after start date."}, verr.Fields["end_date"])
}

func TestApplySkipsDateOrderWhenADateIsMalformed(t *testing.T) {
	var trip models.Trip
	err := (&TripService{}).apply(nil, &trip, TripPatch{
		StartDate: strPtr("2024-06-10"),
		EndDate:   strPtr("June 1st"),
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Date has wrong format. Use one of these formats instead: YYYY-MM-DD."}, verr.Fields["end_date"])
	assert.NotContains(t, verr.Fields, "start_date")
}

func TestApplyAcceptsSameDayTrip(t *testing.T) {
	var trip models.Trip
	err := (&TripService{}).apply(nil, &trip, TripPatch{
		Name:      strPtr("Lisbon"),
		StartDate: strPtr("2024-06-01"),
		EndDate:   strPtr("2024-06-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", trip.Name)
}
