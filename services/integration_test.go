//go:build integration
// +build integration

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roadrunner/api-go/cache"
	"github.com/roadrunner/api-go/config"
	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/notify"
	"github.com/roadrunner/api-go/storage"
	"github.com/roadrunner/api-go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Tr4vel-Light-Always"

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("roadrunner"),
		postgres.WithUsername("roadrunner"),
		postgres.WithPassword("roadrunner"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}
	testDB, err = gorm.Open(pgdriver.Open(connStr), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := config.Migrate(testDB); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	code := m.Run()
	if err := pg.Terminate(ctx); err != nil {
		log.Printf("terminate postgres: %v", err)
	}
	os.Exit(code)
}

type fixture struct {
	*Services
	media string
}

func newFixture(t *testing.T, notifier notify.Publisher) *fixture {
	t.Helper()
	media := t.TempDir()
	blobs, err := storage.NewLocal(media, "/media")
	require.NoError(t, err)

	return &fixture{
		Services: New(Deps{
			DB:       testDB,
			Storage:  blobs,
			Cache:    cache.NewMemoryStore(),
			Notifier: notifier,
			Tokens:   utils.NewTokenManager("integration-secret", time.Minute, time.Hour),
			Log:      zap.NewNop(),
		}),
		media: media,
	}
}

func (f *fixture) register(t *testing.T) *AuthResult {
	t.Helper()
	name := "u" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	res, err := f.Auth.Register(context.Background(), RegisterInput{
		Username:       name,
		Email:          name + "@Example.com",
		Password:       testPassword,
		RepeatPassword: testPassword,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) city(t *testing.T, userID uint) *CityView {
	t.Helper()
	city, err := f.Cities.Create(context.Background(), userID, "City "+uuid.NewString()[:8])
	require.NoError(t, err)
	return city
}

func (f *fixture) place(t *testing.T, userID, cityID uint, name string, price float64) *PlaceDetail {
	t.Helper()
	p, err := f.Places.Create(context.Background(), userID, PlaceInput{Name: name, Price: &price, CityID: cityID})
	require.NoError(t, err)
	return p
}

func (f *fixture) trip(t *testing.T, userID, cityID uint) *TripView {
	t.Helper()
	trip, err := f.Trips.Create(context.Background(), userID, TripInput{
		Name: "Trip", StartDate: "2025-06-01", EndDate: "2025-06-10", DestinationID: cityID,
	})
	require.NoError(t, err)
	return trip
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
	return verr.Fields
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.Auth.Register(context.Background(), RegisterInput{
		Username: "weakling", Email: "weak@example.com", Password: "abc", RepeatPassword: "abc",
	})

	fields := fieldsOf(t, err)
	require.NotEmpty(t, fields["password"])
	assert.Contains(t, fields["password"][0], "too short")

	var n int64
	require.NoError(t, testDB.Model(&models.User{}).Where("username = ?", "weakling").Count(&n).Error)
	assert.Zero(t, n)
}

func TestRegisterNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res := f.register(t)

	assert.Equal(t, strings.ToLower(res.User.Username)+"@example.com", res.User.Email)

	_, err := f.Auth.Register(ctx, RegisterInput{
		Username: res.User.Username, Email: res.User.Username + "@EXAMPLE.COM",
		Password: testPassword, RepeatPassword: testPassword,
	})
	fields := fieldsOf(t, err)
	assert.Equal(t, []string{msgUsernameTaken}, fields["username"])
	assert.Equal(t, []string{msgEmailTaken}, fields["email"])
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res := f.register(t)

	_, err := f.Auth.Login(ctx, res.User.Username, testPassword)
	require.NoError(t, err)
	_, err = f.Auth.Login(ctx, res.User.Username+"@EXAMPLE.com", testPassword)
	require.NoError(t, err)

	_, err = f.Auth.Login(ctx, res.User.Username, "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.Auth.Login(ctx, "nobody-here", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshStopsWorkingAfterLogout(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res := f.register(t)

	access, err := f.Auth.Refresh(ctx, res.Tokens.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	_, err = f.Auth.Refresh(ctx, res.Tokens.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, f.Auth.Logout(ctx, res.User.ID, res.Tokens.Refresh))
	_, err = f.Auth.Refresh(ctx, res.Tokens.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	err = f.Auth.Logout(ctx, res.User.ID, res.Tokens.Refresh)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid refresh token", verr.Message)
}

func TestPurgeExpiredKeepsLiveTokens(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res := f.register(t)

	expired := models.RefreshToken{UserID: res.User.ID, Token: "expired-" + uuid.NewString(), ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, testDB.Create(&expired).Error)

	n, err := f.Auth.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, err = f.Auth.Refresh(ctx, res.Tokens.Refresh)
	assert.NoError(t, err)
}

func TestProfileUpdateIsAllOrNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t)
	bob := f.register(t)

	status := "travelling"
	email := bob.User.Email
	_, err := f.Users.Update(ctx, alice.User.ID, ProfilePatch{Status: &status, Email: &email})
	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"This email is already in use."}, fields["email"])

	profile, err := f.Users.Get(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, profile.Status)
	assert.Equal(t, alice.User.Email, profile.Email)

	profile, err = f.Users.Update(ctx, alice.User.ID, ProfilePatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "travelling", profile.Status)
}

func TestProfilePhotoReplacesOldBlob(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := f.register(t)

	err := f.Users.RemovePhoto(ctx, user.User.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	first, err := f.Users.SetPhoto(ctx, user.User.ID, Upload{FileName: "a.jpg", Size: 3, Body: strings.NewReader("one")})
	require.NoError(t, err)
	require.NotNil(t, first.ProfilePhoto)
	second, err := f.Users.SetPhoto(ctx, user.User.ID, Upload{FileName: "b.jpg", Size: 3, Body: strings.NewReader("two")})
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(f.media, "profile_photos", "*", "*"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(*second.ProfilePhoto, filepath.Base(files[0])))
}

func TestRatingsKeepAggregateInStep(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.register(t)
	city := f.city(t, owner.User.ID)
	place := f.place(t, owner.User.ID, city.ID, "Viewpoint", 0)

	var raters []uint
	for i := 0; i < 3; i++ {
		raters = append(raters, f.register(t).User.ID)
	}
	for i, r := range []int{5, 4, 3} {
		_, err := f.Ratings.Rate(ctx, raters[i], place.ID, r)
		require.NoError(t, err)
	}

	_, err := f.Ratings.Rate(ctx, raters[0], place.ID, 1)
	require.NoError(t, err)
	got, err := f.Places.Get(ctx, raters[0], place.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.TotalRatings)
	assert.InDelta(t, 8.0/3.0, got.AverageRating, 0.01)
	require.NotNil(t, got.UserRating)
	assert.Equal(t, 1, *got.UserRating)

	require.NoError(t, f.Ratings.Remove(ctx, raters[1], place.ID))
	got, err = f.Places.Get(ctx, raters[1], place.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TotalRatings)
	assert.InDelta(t, 2.0, got.AverageRating, 0.01)
	assert.Nil(t, got.UserRating)

	assert.ErrorIs(t, f.Ratings.Remove(ctx, raters[1], place.ID), ErrNotFound)
	_, err = f.Ratings.Rate(ctx, raters[0], place.ID, 6)
	assert.Error(t, err)
}

func TestMarkVisitedKeepsFirstVisit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := f.register(t)
	city := f.city(t, user.User.ID)
	place := f.place(t, user.User.ID, city.ID, "Harbour", 2)

	first, err := f.Visits.MarkVisited(ctx, user.User.ID, place.ID, "sunset")
	require.NoError(t, err)
	again, err := f.Visits.MarkVisited(ctx, user.User.ID, place.ID, "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.True(t, first.VisitedAt.Equal(again.VisitedAt))
	assert.Equal(t, "sunset", again.Notes)

	again, err = f.Visits.MarkVisited(ctx, user.User.ID, place.ID, "rainy")
	require.NoError(t, err)
	assert.Equal(t, "rainy", again.Notes)

	_, err = f.Visits.MarkVisited(ctx, user.User.ID, 0, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceListFiltersAndOrders(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := f.register(t)
	city := f.city(t, user.User.ID)
	f.place(t, user.User.ID, city.ID, "Museum of Art", 15)
	f.place(t, user.User.ID, city.ID, "City Park", 0)
	f.place(t, user.User.ID, city.ID, "Science Museum", 30)

	maxPrice := 20.0
	places, page, err := f.Places.List(ctx, city.ID, PlaceFilter{PriceLTE: &maxPrice, Ordering: "-price"})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Museum of Art", places[0].Name)
	assert.Equal(t, int64(2), page.Total)

	places, _, err = f.Places.List(ctx, city.ID, PlaceFilter{Search: "museum", Ordering: "name"})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Museum of Art", places[0].Name)

	places, page, err = f.Places.List(ctx, city.ID, PlaceFilter{Page: 2, PageSize: 2, Ordering: "name"})
	require.NoError(t, err)
	assert.Len(t, places, 1)
	assert.Equal(t, int64(3), page.Total)
}

func TestTripsAreScopedToOwner(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t)
	bob := f.register(t)
	city := f.city(t, alice.User.ID)
	trip := f.trip(t, alice.User.ID, city.ID)

	_, err := f.Trips.Get(ctx, bob.User.ID, trip.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.Trips.Delete(ctx, bob.User.ID, trip.ID), ErrNotFound)

	_, err = f.Checklist.Create(ctx, bob.User.ID, ChecklistInput{TripID: trip.ID, Name: "Sneaky"})
	assert.NotEmpty(t, fieldsOf(t, err)["trip_id"])

	bobTrips, err := f.Trips.List(ctx, bob.User.ID)
	require.NoError(t, err)
	assert.Empty(t, bobTrips)
}

func TestTripDatesMustBeOrdered(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := f.register(t)
	city := f.city(t, user.User.ID)

	_, err := f.Trips.Create(ctx, user.User.ID, TripInput{
		Name: "Backwards", StartDate: "2025-06-10", EndDate: "2025-06-01", DestinationID: city.ID,
	})
	assert.NotEmpty(t, fieldsOf(t, err)["end_date"])

	trip := f.trip(t, user.User.ID, city.ID)
	early := "2025-05-01"
	_, err = f.Trips.Update(ctx, user.User.ID, trip.ID, TripPatch{EndDate: &early})
	assert.NotEmpty(t, fieldsOf(t, err)["end_date"])

	late := "2025-07-01"
	updated, err := f.Trips.Update(ctx, user.User.ID, trip.ID, TripPatch{EndDate: &late})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", updated.StartDate)
	assert.Equal(t, late, updated.EndDate)
}

func TestChecklistBulkUpdateIsAtomic(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t)
	bob := f.register(t)
	city := f.city(t, alice.User.ID)
	mine := f.trip(t, alice.User.ID, city.ID)
	theirs := f.trip(t, bob.User.ID, city.ID)

	passport, err := f.Checklist.Create(ctx, alice.User.ID, ChecklistInput{TripID: mine.ID, Name: "Passport"})
	require.NoError(t, err)
	foreign, err := f.Checklist.Create(ctx, bob.User.ID, ChecklistInput{TripID: theirs.ID, Name: "Bob's hat"})
	require.NoError(t, err)

	packed := true
	_, err = f.Checklist.BulkUpdate(ctx, alice.User.ID, []BulkItem{
		{ID: passport.ID, IsPacked: &packed},
		{ID: foreign.ID, IsPacked: &packed},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	item, err := f.Checklist.Get(ctx, alice.User.ID, passport.ID)
	require.NoError(t, err)
	assert.False(t, item.IsPacked)

	item, err = f.Checklist.TogglePacked(ctx, alice.User.ID, passport.ID)
	require.NoError(t, err)
	assert.True(t, item.IsPacked)
}

func TestDocumentLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := f.register(t)
	city := f.city(t, user.User.ID)
	trip := f.trip(t, user.User.ID, city.ID)

	doc, err := f.Documents.Upload(ctx, user.User.ID, DocumentInput{TripID: trip.ID, Name: "Visa"},
		&Upload{FileName: "visa.pdf", Size: 4, Body: strings.NewReader("%PDF")})
	require.NoError(t, err)
	blob := filepath.Join(f.media, filepath.FromSlash(doc.File))
	assert.FileExists(t, blob)

	renamed, err := f.Documents.Rename(ctx, user.User.ID, doc.ID, "  Visa 2025 ")
	require.NoError(t, err)
	assert.Equal(t, "Visa 2025", renamed.Name)

	require.NoError(t, f.Documents.Delete(ctx, user.User.ID, doc.ID))
	assert.NoFileExists(t, blob)
	_, err = f.Documents.Get(ctx, user.User.ID, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletingTripRemovesEverything(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := f.register(t)
	city := f.city(t, user.User.ID)
	trip := f.trip(t, user.User.ID, city.ID)

	item, err := f.Checklist.Create(ctx, user.User.ID, ChecklistInput{TripID: trip.ID, Name: "Charger"})
	require.NoError(t, err)
	doc, err := f.Documents.Upload(ctx, user.User.ID, DocumentInput{TripID: trip.ID, Name: "Ticket"},
		&Upload{FileName: "ticket.pdf", Size: 2, Body: strings.NewReader("ok")})
	require.NoError(t, err)

	require.NoError(t, f.Trips.Delete(ctx, user.User.ID, trip.ID))

	_, err = f.Checklist.Get(ctx, user.User.ID, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.Documents.Get(ctx, user.User.ID, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoFileExists(t, filepath.Join(f.media, filepath.FromSlash(doc.File)))
}

func TestCommentNotifiesPlaceCreator(t *testing.T) {
	dispatcher := notify.NewDispatcher(notify.StoreHandler{DB: testDB}, zap.NewNop(), 1, 8)
	dispatcher.Start()
	f := newFixture(t, dispatcher)
	ctx := context.Background()

	owner := f.register(t)
	visitor := f.register(t)
	city := f.city(t, owner.User.ID)
	place := f.place(t, owner.User.ID, city.ID, "Old Town", 0)

	_, err := f.Comments.Post(ctx, owner.User.ID, place.ID, "my own place")
	require.NoError(t, err)
	_, err = f.Comments.Post(ctx, visitor.User.ID, place.ID, "lovely streets")
	require.NoError(t, err)

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Close(closeCtx))

	inbox, err := f.Notifications.List(ctx, owner.User.ID, true)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, visitor.User.ID, inbox[0].SenderID)

	read, err := f.Notifications.MarkRead(ctx, owner.User.ID, inbox[0].ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	_, err = f.Notifications.MarkRead(ctx, visitor.User.ID, inbox[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	unread, err := f.Notifications.List(ctx, owner.User.ID, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	comments, page, err := f.Comments.List(ctx, place.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "lovely streets", comments[0].Text)
}

func TestAccountDeleteCascades(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := f.register(t)
	city := f.city(t, user.User.ID)
	trip := f.trip(t, user.User.ID, city.ID)

	doc, err := f.Documents.Upload(ctx, user.User.ID, DocumentInput{TripID: trip.ID, Name: "Insurance"},
		&Upload{FileName: "ins.pdf", Size: 3, Body: strings.NewReader("ins")})
	require.NoError(t, err)

	require.NoError(t, f.Users.Delete(ctx, user.User.ID))

	_, err = f.Users.Get(ctx, user.User.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var trips int64
	require.NoError(t, testDB.Model(&models.Trip{}).Where("user_id = ?", user.User.ID).Count(&trips).Error)
	assert.Zero(t, trips)
	assert.NoFileExists(t, filepath.Join(f.media, filepath.FromSlash(doc.File)))

	exists, err := f.Users.Exists(ctx, "username", user.User.Username)
	require.NoError(t, err)
	assert.False(t, exists)
}

func placeLocationID(t *testing.T, placeID uint) uint {
	t.Helper()
	var place models.Place
	require.NoError(t, testDB.First(&place, placeID).Error)
	require.NotNil(t, place.LocationID)
	return *place.LocationID
}

func TestPlacesShareExactLocation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.register(t)
	city := f.city(t, owner.User.ID)

	lat := float64(time.Now().UnixNano()%80_000_000) / 1e6
	lng := 12.4924
	create := func(name string, lat, lng float64) uint {
		price := 5.0
		p, err := f.Places.Create(ctx, owner.User.ID, PlaceInput{Name: name, Price: &price, CityID: city.ID, Lat: &lat, Lng: &lng})
		require.NoError(t, err)
		require.NotNil(t, p.LocationDetails)
		assert.Equal(t, lat, p.LocationDetails.Lat)
		return p.ID
	}

	first := create("Colosseum", lat, lng)
	second := create("Colosseum gift shop", lat, lng)
	third := create("Ludus Magnus", lat+1e-9, lng)

	assert.Equal(t, placeLocationID(t, first), placeLocationID(t, second))
	assert.NotEqual(t, placeLocationID(t, first), placeLocationID(t, third))
}

func TestConcurrentPlacesResolveOneLocation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.register(t)
	city := f.city(t, owner.User.ID)

	lat := float64(time.Now().UnixNano()%80_000_000)/1e6 + 0.5
	lng := -3.7038
	const n = 8
	ids := make([]uint, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			price := 1.0
			p, err := f.Places.Create(ctx, owner.User.ID, PlaceInput{
				Name: fmt.Sprintf("Stall %d", i), Price: &price, CityID: city.ID, Lat: &lat, Lng: &lng,
			})
			errs[i] = err
			if err == nil {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}
	want := placeLocationID(t, ids[0])
	for _, id := range ids[1:] {
		assert.Equal(t, want, placeLocationID(t, id))
	}
	var count int64
	require.NoError(t, testDB.Model(&models.Location{}).Where("lat = ? AND lng = ?", lat, lng).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPlacePriceAboveColumnRange(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.register(t)
	city := f.city(t, owner.User.ID)

	price := 100000000.0
	_, err := f.Places.Create(ctx, owner.User.ID, PlaceInput{Name: "Palace", Price: &price, CityID: city.ID})
	assert.Equal(t, []string{"Ensure this value is less than or equal to 99999999.99."}, fieldsOf(t, err)["price"])

	place := f.place(t, owner.User.ID, city.ID, "Palace", maxPrice)
	assert.Equal(t, maxPrice, place.Price)

	_, err = f.Places.Update(ctx, owner.User.ID, place.ID, PlacePatch{Price: &price})
	assert.Contains(t, fieldsOf(t, err), "price")
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, notify.CommentPosted) error {
	return notify.ErrQueueFull
}

func TestCommentSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t, failingPublisher{})
	ctx := context.Background()
	owner := f.register(t)
	visitor := f.register(t)
	city := f.city(t, owner.User.ID)
	place := f.place(t, owner.User.ID, city.ID, "Harbour", 0)

	posted, err := f.Comments.Post(ctx, visitor.User.ID, place.ID, "windy but worth it")
	require.NoError(t, err)
	assert.Equal(t, "windy but worth it", posted.Text)

	comments, page, err := f.Comments.List(ctx, place.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, comments, 1)
	assert.Equal(t, posted.ID, comments[0].ID)

	inbox, err := f.Notifications.List(ctx, owner.User.ID, false)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestPlaceShowsFiveNewestComments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.register(t)
	city := f.city(t, owner.User.ID)
	place := f.place(t, owner.User.ID, city.ID, "Bridge", 0)

	for i := 0; i < 7; i++ {
		_, err := f.Comments.Post(ctx, owner.User.ID, place.ID, fmt.Sprintf("comment %d", i))
		require.NoError(t, err)
	}

	detail, err := f.Places.Get(ctx, owner.User.ID, place.ID)
	require.NoError(t, err)
	require.Len(t, detail.RecentComments, 5)
	texts := make([]string, 0, len(detail.RecentComments))
	for _, c := range detail.RecentComments {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"comment 6", "comment 5", "comment 4", "comment 3", "comment 2"}, texts)
}

func TestRegistrationConflictNamesColumn(t *testing.T) {
	f := newFixture(t, nil)
	existing := f.register(t)

	err := f.Auth.registrationConflict(testDB, "fresh"+uuid.NewString()[:8], existing.User.Email)
	fields := fieldsOf(t, err)
	assert.Equal(t, []string{msgEmailTaken}, fields["email"])
	assert.NotContains(t, fields, "username")

	err = f.Auth.registrationConflict(testDB, existing.User.Username, "fresh-"+uuid.NewString()[:8]+"@example.com")
	fields = fieldsOf(t, err)
	assert.Equal(t, []string{msgUsernameTaken}, fields["username"])
	assert.NotContains(t, fields, "email")

	err = f.Auth.registrationConflict(testDB, "gone"+uuid.NewString()[:8], "gone-"+uuid.NewString()[:8]+"@example.com")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, msgAccountTaken, verr.Message)
	assert.Empty(t, verr.Fields)
}

func TestActiveIgnoresStatusLabel(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := f.register(t)

	active, err := f.Users.Active(ctx, user.User.ID)
	require.NoError(t, err)
	assert.True(t, active)

	status := "traveling"
	_, err = f.Users.Update(ctx, user.User.ID, ProfilePatch{Status: &status})
	require.NoError(t, err)
	active, err = f.Users.Active(ctx, user.User.ID)
	require.NoError(t, err)
	assert.True(t, active)
	_, err = f.Auth.Login(ctx, user.User.Username, testPassword)
	require.NoError(t, err)

	require.NoError(t, testDB.Model(&models.User{}).Where("id = ?", user.User.ID).Update("is_active", false).Error)
	active, err = f.Users.Active(ctx, user.User.ID)
	require.NoError(t, err)
	assert.False(t, active)
	_, err = f.Auth.Login(ctx, user.User.Username, testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	other := f.register(t)
	require.NoError(t, f.Users.Delete(ctx, other.User.ID))
	active, err = f.Users.Active(ctx, other.User.ID)
	require.NoError(t, err)
	assert.False(t, active)
}
