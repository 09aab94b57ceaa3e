package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/controllers"
)

func SetupCityRoutes(protected *gin.RouterGroup, cityController *controllers.CityController) {
	cities := protected.Group("/cities")
	{
		cities.POST("", cityController.CreateCity)
		cities.GET("", cityController.ListCities)
		cities.POST("/add", cityController.AddCity)
		cities.GET("/choices", cityController.CityChoices)
		cities.GET("/:id", cityController.GetCity)
		cities.GET("/:id/places", cityController.ListPlaces)
	}
}
