package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/models"
	"go.uber.org/zap"
)

type NotificationService interface {
	List(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uint) (*models.Notification, error)
}

type NotificationController struct {
	Notifications NotificationService
	Log           *zap.Logger
}

// ListNotifications returns the inbox newest first; ?unread=true hides read ones.
func (nc *NotificationController) ListNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	unread, _ := strconv.ParseBool(c.Query("unread"))

	notes, err := nc.Notifications.List(c.Request.Context(), userID, unread)
	if err != nil {
		respondError(c, nc.Log, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (nc *NotificationController) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	note, err := nc.Notifications.MarkRead(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, nc.Log, err)
		return
	}
	c.JSON(http.StatusOK, note)
}
