package models

import (
	"time"
)

type Place struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CityID      uint      `gorm:"not null;index" json:"city"`
	City        City      `gorm:"foreignKey:CityID;constraint:OnDelete:CASCADE" json:"-"`
	LocationID  *uint     `json:"-"`
	Location    *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:SET NULL" json:"-"`
	Price       float64   `gorm:"not null;type:decimal(10,2);check:price >= 0" json:"price"`
	Photo       string    `json:"-"` // storage key
	CreatedByID *uint     `gorm:"index" json:"-"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"-"`

	// Running aggregate over PlaceRating rows, maintained by every rating write.
	RatingSum     int64   `gorm:"not null;default:0" json:"-"`
	TotalRatings  int64   `gorm:"not null;default:0" json:"total_ratings"`
	AverageRating float64 `gorm:"not null;default:0" json:"average_rating"`

	Ratings  []PlaceRating    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Comments []PlaceComment   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Visits   []UserPlaceVisit `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type PlaceRating struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_rating_user_place" json:"user"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PlaceID   uint      `gorm:"not null;uniqueIndex:idx_rating_user_place;index" json:"place"`
	Rating    int       `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
}

type PlaceComment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"not null;index" json:"user"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PlaceID   uint      `gorm:"not null;index" json:"place"`
	Text      string    `gorm:"type:text;not null" json:"text"`
}

type UserPlaceVisit struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	VisitedAt time.Time `gorm:"not null;autoCreateTime" json:"visited_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_visit_user_place" json:"user"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PlaceID   uint      `gorm:"not null;uniqueIndex:idx_visit_user_place;index" json:"place"`
	Notes     string    `gorm:"type:text;not null;default:''" json:"notes"`
}
