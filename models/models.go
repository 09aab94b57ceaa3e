package models

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&City{},
		&Location{},
		&Place{},
		&PlaceRating{},
		&PlaceComment{},
		&UserPlaceVisit{},
		&Notification{},
		&Trip{},
		&ChecklistItem{},
		&TravelDocument{},
	}
}
