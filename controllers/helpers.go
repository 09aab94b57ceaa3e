package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/services"
	"github.com/roadrunner/api-go/utils"
)

// currentUserID reads the principal set by AuthMiddleware. It answers 401
// itself when the route was mounted without the middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	user := utils.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return user.UserID, true
}

// idParam parses a positive integer path parameter, answering 404 otherwise.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return uint(id), true
}

func paginated(data interface{}, page services.Page) StandardResponse {
	return StandardResponse{
		Success:    true,
		Data:       data,
		Pagination: newPaginationMeta(page),
	}
}

// tripIDQuery reads the required trip_id query parameter of the by_trip actions.
func tripIDQuery(c *gin.Context) (uint, bool) {
	raw := c.Query("trip_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trip_id query parameter is required"})
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return uint(id), true
}
