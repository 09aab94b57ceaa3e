package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/controllers"
)

func SetupPlaceRoutes(protected *gin.RouterGroup, placeController *controllers.PlaceController) {
	places := protected.Group("/places")
	{
		places.POST("", placeController.CreatePlace)
		places.GET("/:id", placeController.GetPlace)
		places.PATCH("/:id", placeController.UpdatePlace)
		places.DELETE("/:id", placeController.DeletePlace)

		places.PUT("/:id/photo", placeController.UploadPhoto)
		places.DELETE("/:id/photo", placeController.RemovePhoto)

		places.PATCH("/:id/visit", placeController.MarkVisited)

		places.POST("/:id/ratings", placeController.RatePlace)
		places.DELETE("/:id/ratings", placeController.RemoveRating)

		places.POST("/:id/comments", placeController.PostComment)
		places.GET("/:id/comments", placeController.ListComments)
	}
}
