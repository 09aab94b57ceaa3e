package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/controllers"
)

func SetupTripRoutes(
	protected *gin.RouterGroup,
	tripController *controllers.TripController,
	checklistController *controllers.ChecklistController,
	documentController *controllers.DocumentController,
) {
	trips := protected.Group("/trip")
	{
		trips.GET("", tripController.ListTrips)
		trips.POST("", tripController.CreateTrip)
		trips.GET("/:id", tripController.GetTrip)
		trips.PUT("/:id", tripController.ReplaceTrip)
		trips.PATCH("/:id", tripController.UpdateTrip)
		trips.DELETE("/:id", tripController.DeleteTrip)
	}

	checklist := protected.Group("/checklist")
	{
		checklist.GET("", checklistController.ListItems)
		checklist.POST("", checklistController.CreateItem)
		checklist.GET("/by_trip", checklistController.ByTrip)
		checklist.PATCH("/bulk_update", checklistController.BulkUpdate)
		checklist.GET("/:id", checklistController.GetItem)
		checklist.PUT("/:id", checklistController.UpdateItem)
		checklist.PATCH("/:id", checklistController.UpdateItem)
		checklist.DELETE("/:id", checklistController.DeleteItem)
		checklist.PATCH("/:id/toggle_packed", checklistController.TogglePacked)
	}

	documents := protected.Group("/document")
	{
		documents.GET("", documentController.ListDocuments)
		documents.POST("", documentController.UploadDocument)
		documents.GET("/by_trip", documentController.ByTrip)
		documents.GET("/:id", documentController.GetDocument)
		documents.DELETE("/:id", documentController.DeleteDocument)
		documents.PUT("/:id/rename", documentController.RenameDocument)
	}
}
