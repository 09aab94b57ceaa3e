package cmd

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/roadrunner/api-go/cache"
	"github.com/roadrunner/api-go/config"
	"github.com/roadrunner/api-go/controllers"
	"github.com/roadrunner/api-go/middleware"
	"github.com/roadrunner/api-go/notify"
	"github.com/roadrunner/api-go/routes"
	"github.com/roadrunner/api-go/services"
	"github.com/roadrunner/api-go/storage"
	"github.com/roadrunner/api-go/utils"
	"github.com/roadrunner/api-go/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app owns every long-lived resource of the serve command.
type app struct {
	cfg      *config.AppConfig
	log      *zap.Logger
	db       *gorm.DB
	blobs    storage.Storage
	rdb      *redis.Client
	tokens   *utils.TokenManager
	services *services.Services

	dispatcher *notify.Dispatcher
	stopQueue  context.CancelFunc
	queueDone  sync.WaitGroup
}

func newApp(cfg *config.AppConfig, log *zap.Logger) (*app, error) {
	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		blobs:  blobs,
		tokens: utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
	}

	var store cache.Store = cache.NewMemoryStore()
	if cfg.RedisURL != "" {
		a.rdb, err = cache.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		store = cache.NewRedisStore(a.rdb)
	}

	var google services.GoogleVerifier
	if g := config.NewGoogleConfig(cfg.Google); g != nil {
		google = g
	}

	a.services = services.New(services.Deps{
		DB:       db,
		Storage:  blobs,
		Cache:    store,
		Notifier: a.startNotifier(),
		Tokens:   a.tokens,
		Google:   google,
		Log:      log,
	})
	return a, nil
}

// startNotifier delivers comment notifications through redis when it is
// configured, so that any instance may deliver them, and in-process otherwise.
func (a *app) startNotifier() notify.Publisher {
	handler := notify.Fanout{notify.StoreHandler{DB: a.db}}
	if a.cfg.Mail.Enabled() {
		handler = append(handler, notify.NewMailHandler(a.cfg.Mail))
	}
	log := a.log.Named("notify")

	if a.rdb != nil {
		queue := notify.NewRedisQueue(a.rdb, log)
		ctx, cancel := context.WithCancel(context.Background())
		a.stopQueue = cancel
		a.queueDone.Add(1)
		go func() {
			defer a.queueDone.Done()
			queue.Consume(ctx, handler)
		}()
		return queue
	}

	a.dispatcher = notify.NewDispatcher(handler, log, a.cfg.Notify.Workers, a.cfg.Notify.QueueSize)
	a.dispatcher.Start()
	return a.dispatcher
}

func (a *app) router() *gin.Engine {
	if !a.cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.Register()

	r := gin.New()
	r.MaxMultipartMemory = controllers.MaxUploadMemory
	r.Use(middleware.Recovery(a.log))
	r.Use(middleware.Logger(a.log.Named("http")))
	r.Use(middleware.CORS(a.cfg.AllowedOrigins, a.cfg.IsDev()))

	if local, ok := a.blobs.(*storage.Local); ok {
		routes.SetupMediaRoutes(r, mediaPath(a.cfg.Storage.PublicURL), local.Root())
	}
	routes.SetupRoutes(r, newControllers(a.services, a.log), a.tokens, a.services.Users)
	return r
}

func newControllers(svc *services.Services, log *zap.Logger) routes.Controllers {
	return routes.Controllers{
		Auth:       controllers.NewAuthController(svc.Auth, log),
		Users:      controllers.NewUserController(svc.Users, log),
		Validation: controllers.NewValidationController(svc.Users, log),
		Cities:     controllers.NewCityController(svc.Cities, svc.Places, log),
		Places: &controllers.PlaceController{
			Places:   svc.Places,
			Ratings:  svc.Ratings,
			Comments: svc.Comments,
			Visits:   svc.Visits,
			Log:      log,
		},
		Trips:         &controllers.TripController{Trips: svc.Trips, Log: log},
		Checklist:     &controllers.ChecklistController{Items: svc.Checklist, Log: log},
		Documents:     &controllers.DocumentController{Documents: svc.Documents, Log: log},
		Notifications: &controllers.NotificationController{Notifications: svc.Notifications, Log: log},
	}
}

// mediaPath is the path part of the local media URL, "/media" when it has none.
func mediaPath(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/media"
	}
	return u.Path
}

// close drains notification delivery and releases connections.
func (a *app) close(ctx context.Context) {
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			a.log.Warn("notification queue not drained", zap.Error(err))
		}
	}
	if a.stopQueue != nil {
		a.stopQueue()
		a.queueDone.Wait()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("redis close failed", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
