package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/controllers"
	"github.com/roadrunner/api-go/middleware"
	"github.com/roadrunner/api-go/utils"
)

// Controllers groups every handler set mounted under /api.
type Controllers struct {
	Auth          *controllers.AuthController
	Users         *controllers.UserController
	Validation    *controllers.ValidationController
	Cities        *controllers.CityController
	Places        *controllers.PlaceController
	Trips         *controllers.TripController
	Checklist     *controllers.ChecklistController
	Documents     *controllers.DocumentController
	Notifications *controllers.NotificationController
}

func SetupRoutes(r *gin.Engine, ctl Controllers, tokens *utils.TokenManager, accounts middleware.AccountChecker) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/register", ctl.Auth.Register)
		public.POST("/login", ctl.Auth.Login)
		public.POST("/token/refresh", ctl.Auth.RefreshToken)
		public.POST("/auth/google", ctl.Auth.GoogleLogin)
		SetupValidationRoutes(public, ctl.Validation)
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(tokens, accounts))
	{
		protected.POST("/logout", ctl.Auth.Logout)

		SetupUserRoutes(protected, ctl.Users)
		SetupCityRoutes(protected, ctl.Cities)
		SetupPlaceRoutes(protected, ctl.Places)
		SetupTripRoutes(protected, ctl.Trips, ctl.Checklist, ctl.Documents)
		SetupNotificationRoutes(protected, ctl.Notifications)
	}
}

// SetupMediaRoutes serves locally stored blobs under urlPrefix.
func SetupMediaRoutes(r *gin.Engine, urlPrefix, root string) {
	r.Static(urlPrefix, root)
}
