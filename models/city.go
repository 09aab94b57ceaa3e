package models

import (
	"time"
)

type City struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"-"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	Users     []User    `gorm:"many2many:user_cities;constraint:OnDelete:CASCADE" json:"-"`
}

// Location is shared by places standing on the exact same coordinates.
type Location struct {
	ID  uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Lat float64 `gorm:"not null;uniqueIndex:idx_location_lat_lng" json:"lat"`
	Lng float64 `gorm:"not null;uniqueIndex:idx_location_lat_lng" json:"lng"`
}
