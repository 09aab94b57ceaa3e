package services

import (
	"time"

	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/storage"
)

const dateLayout = "2006-01-02"

// Page describes one slice of a paginated listing.
type Page struct {
	Number int
	Size   int
	Total  int64
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePage clamps page and size to the accepted range.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

type UserView struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"status"`
	ProfilePhoto *string   `json:"profile_photo"`
}

func userView(u *models.User, blobs storage.Storage) UserView {
	return UserView{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		CreatedAt:    u.CreatedAt,
		Status:       u.Status,
		ProfilePhoto: blobURL(blobs, u.ProfilePhoto),
	}
}

// UserSummary is the short form embedded in auth responses.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type CityView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	PlacesCount int64  `json:"places_count"`
}

type CityDetail struct {
	CityView
	RecentPlaces []PlaceView `json:"recent_places"`
}

type CityChoice struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type LocationView struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PlaceView struct {
	ID              uint          `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	City            uint          `json:"city"`
	CityName        string        `json:"city_name"`
	LocationDetails *LocationView `json:"location_details"`
	Price           float64       `json:"price"`
	Photo           *string       `json:"photo"`
	AverageRating   float64       `json:"average_rating"`
	TotalRatings    int64         `json:"total_ratings"`
	CommentsCount   int64         `json:"comments_count"`
	CreatedBy       *uint         `json:"created_by"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PlaceDetail adds the requester-specific and aggregate fields shown on a place page.
type PlaceDetail struct {
	PlaceView
	RatingsCount   int64         `json:"ratings_count"`
	VisitsCount    int64         `json:"visits_count"`
	RecentComments []CommentView `json:"recent_comments"`
	UserRating     *int          `json:"user_rating"`
	UserVisited    bool          `json:"user_visited"`
}

func placeView(p *models.Place, commentsCount int64, blobs storage.Storage) PlaceView {
	v := PlaceView{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		City:          p.CityID,
		CityName:      p.City.Name,
		Price:         p.Price,
		Photo:         blobURL(blobs, p.Photo),
		AverageRating: p.AverageRating,
		TotalRatings:  p.TotalRatings,
		CommentsCount: commentsCount,
		CreatedBy:     p.CreatedByID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Location != nil {
		v.LocationDetails = &LocationView{Lat: p.Location.Lat, Lng: p.Location.Lng}
	}
	return v
}

type CommentView struct {
	ID        uint      `json:"id"`
	User      uint      `json:"user"`
	Username  string    `json:"username"`
	Place     uint      `json:"place"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func commentView(c *models.PlaceComment) CommentView {
	return CommentView{
		ID:        c.ID,
		User:      c.UserID,
		Username:  c.User.Username,
		Place:     c.PlaceID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type DocumentView struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	File       string    `json:"file"`
	FileURL    *string   `json:"file_url"`
	TripID     uint      `json:"trip_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func documentView(d *models.TravelDocument, blobs storage.Storage) DocumentView {
	return DocumentView{
		ID:         d.ID,
		Name:       d.Name,
		File:       d.File,
		FileURL:    blobURL(blobs, d.File),
		TripID:     d.TripID,
		UploadedAt: d.UploadedAt,
	}
}

type TripView struct {
	ID             uint                   `json:"id"`
	Name           string                 `json:"name"`
	StartDate      string                 `json:"start_date"`
	EndDate        string                 `json:"end_date"`
	Destination    CityView               `json:"destination"`
	CreatedAt      time.Time              `json:"created_at"`
	ChecklistItems []models.ChecklistItem `json:"checklist_items"`
	Documents      []DocumentView         `json:"documents"`
}

func blobURL(blobs storage.Storage, key string) *string {
	if key == "" || blobs == nil {
		return nil
	}
	u := blobs.URL(key)
	return &u
}
