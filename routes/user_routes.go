package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/controllers"
)

func SetupUserRoutes(protected *gin.RouterGroup, userController *controllers.UserController) {
	profile := protected.Group("/profile")
	{
		profile.GET("", userController.GetProfile)
		profile.PATCH("", userController.UpdateProfile)
		profile.DELETE("", userController.DeleteAccount)

		profile.PUT("/photo", userController.UploadPhoto)
		profile.DELETE("/photo", userController.RemovePhoto)
	}
}
