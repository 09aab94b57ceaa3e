package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/controllers"
)

func SetupNotificationRoutes(protected *gin.RouterGroup, notificationController *controllers.NotificationController) {
	notifications := protected.Group("/notifications")
	{
		notifications.GET("", notificationController.ListNotifications)
		notifications.PATCH("/:id/read", notificationController.MarkRead)
	}
}
