package services

import (
	"github.com/roadrunner/api-go/cache"
	"github.com/roadrunner/api-go/notify"
	"github.com/roadrunner/api-go/storage"
	"github.com/roadrunner/api-go/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the shared resources the services are built from.
type Deps struct {
	DB       *gorm.DB
	Storage  storage.Storage
	Cache    cache.Store
	Notifier notify.Publisher
	Tokens   *utils.TokenManager
	Google   GoogleVerifier
	Log      *zap.Logger
}

type Services struct {
	Auth          *AuthService
	Users         *UserService
	Cities        *CityService
	Places        *PlaceService
	Ratings       *RatingService
	Comments      *CommentService
	Visits        *VisitService
	Trips         *TripService
	Checklist     *ChecklistService
	Documents     *DocumentService
	Notifications *NotificationService
}

func New(d Deps) *Services {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}
	choices := &ChoicesCache{Store: d.Cache, Log: log}
	guard := Guard{DB: d.DB}

	return &Services{
		Auth:          &AuthService{DB: d.DB, Tokens: d.Tokens, Google: d.Google},
		Users:         &UserService{DB: d.DB, Storage: d.Storage, Log: log},
		Cities:        &CityService{DB: d.DB, Storage: d.Storage, Choices: choices},
		Places:        &PlaceService{DB: d.DB, Storage: d.Storage, Choices: choices, Log: log},
		Ratings:       &RatingService{DB: d.DB},
		Comments:      &CommentService{DB: d.DB, Notifier: notifier, Log: log},
		Visits:        &VisitService{DB: d.DB},
		Trips:         &TripService{DB: d.DB, Storage: d.Storage, Log: log},
		Checklist:     &ChecklistService{DB: d.DB, Guard: guard},
		Documents:     &DocumentService{DB: d.DB, Storage: d.Storage, Guard: guard, Log: log},
		Notifications: &NotificationService{DB: d.DB},
	}
}
