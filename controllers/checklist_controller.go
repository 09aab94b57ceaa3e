package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/services"
	"go.uber.org/zap"
)

type ChecklistService interface {
	Create(ctx context.Context, userID uint, in services.ChecklistInput) (*models.ChecklistItem, error)
	List(ctx context.Context, userID uint) ([]models.ChecklistItem, error)
	ByTrip(ctx context.Context, userID, tripID uint) ([]models.ChecklistItem, error)
	Get(ctx context.Context, userID, itemID uint) (*models.ChecklistItem, error)
	Update(ctx context.Context, userID, itemID uint, patch services.ChecklistPatch) (*models.ChecklistItem, error)
	Delete(ctx context.Context, userID, itemID uint) error
	TogglePacked(ctx context.Context, userID, itemID uint) (*models.ChecklistItem, error)
	BulkUpdate(ctx context.Context, userID uint, changes []services.BulkItem) ([]models.ChecklistItem, error)
}

type ChecklistController struct {
	Items ChecklistService
	Log   *zap.Logger
}

func (cc *ChecklistController) ListItems(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	items, err := cc.Items.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (cc *ChecklistController) CreateItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input services.ChecklistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := cc.Items.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (cc *ChecklistController) ByTrip(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tripID, ok := tripIDQuery(c)
	if !ok {
		return
	}
	items, err := cc.Items.ByTrip(c.Request.Context(), userID, tripID)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (cc *ChecklistController) GetItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := cc.Items.Get(c.Request.Context(), userID, itemID)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem serves both PUT and PATCH; absent fields keep their value.
func (cc *ChecklistController) UpdateItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var patch services.ChecklistPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := cc.Items.Update(c.Request.Context(), userID, itemID, patch)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (cc *ChecklistController) DeleteItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := cc.Items.Delete(c.Request.Context(), userID, itemID); err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (cc *ChecklistController) TogglePacked(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := cc.Items.TogglePacked(c.Request.Context(), userID, itemID)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// BulkUpdate applies all changes in one transaction or none of them.
func (cc *ChecklistController) BulkUpdate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input struct {
		Items []services.BulkItem `json:"items" binding:"dive"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	items, err := cc.Items.BulkUpdate(c.Request.Context(), userID, input.Items)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
