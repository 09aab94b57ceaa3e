package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/services"
	"go.uber.org/zap"
)

type PlaceService interface {
	Create(ctx context.Context, userID uint, in services.PlaceInput) (*services.PlaceDetail, error)
	Get(ctx context.Context, userID, placeID uint) (*services.PlaceDetail, error)
	Update(ctx context.Context, userID, placeID uint, in services.PlacePatch) (*services.PlaceDetail, error)
	Delete(ctx context.Context, userID, placeID uint) error
	SetPhoto(ctx context.Context, userID, placeID uint, file services.Upload) (*services.PlaceDetail, error)
	RemovePhoto(ctx context.Context, userID, placeID uint) error
	List(ctx context.Context, cityID uint, f services.PlaceFilter) ([]services.PlaceView, services.Page, error)
}

type RatingService interface {
	Rate(ctx context.Context, userID, placeID uint, rating int) (*models.PlaceRating, error)
	Remove(ctx context.Context, userID, placeID uint) error
}

type CommentService interface {
	Post(ctx context.Context, userID, placeID uint, text string) (*services.CommentView, error)
	List(ctx context.Context, placeID uint, page, pageSize int) ([]services.CommentView, services.Page, error)
}

type VisitService interface {
	MarkVisited(ctx context.Context, userID, placeID uint, notes string) (*models.UserPlaceVisit, error)
}

type PlaceController struct {
	Places   PlaceService
	Ratings  RatingService
	Comments CommentService
	Visits   VisitService
	Log      *zap.Logger
}

// @Summary Create a place
// @Tags places
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} services.PlaceDetail
// @Router /places [post]
func (pc *PlaceController) CreatePlace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input services.PlaceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	place, err := pc.Places.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, place)
}

// GetPlace godoc
// @Summary Get a place with counts, recent comments and the caller's rating
// @Tags places
// @Security BearerAuth
// @Param id path integer true "Place ID"
// @Success 200 {object} services.PlaceDetail
// @Router /places/{id} [get]
func (pc *PlaceController) GetPlace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	placeID, ok := idParam(c, "id")
	if !ok {
		return
	}

	place, err := pc.Places.Get(c.Request.Context(), userID, placeID)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

// UpdatePlace is limited to the place's creator.
// @Summary Update a place
// @Tags places
// @Security BearerAuth
// @Param id path integer true "Place ID"
// @Router /places/{id} [patch]
func (pc *PlaceController) UpdatePlace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	placeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var patch services.PlacePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	place, err := pc.Places.Update(c.Request.Context(), userID, placeID, patch)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

// @Summary Delete a place
// @Tags places
// @Security BearerAuth
// @Param id path integer true "Place ID"
// @Router /places/{id} [delete]
func (pc *PlaceController) DeletePlace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	placeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := pc.Places.Delete(c.Request.Context(), userID, placeID); err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhoto expects a multipart "photo" file.
// @Summary Replace a place's photo
// @Tags places
// @Security BearerAuth
// @Accept multipart/form-data
// @Router /places/{id}/photo [put]
func (pc *PlaceController) UploadPhoto(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	placeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	upload, file, err := formFile(c, "photo", mediaPhoto)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	defer file.Close()

	place, err := pc.Places.SetPhoto(c.Request.Context(), userID, placeID, *upload)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

// @Summary Remove a place's photo
// @Tags places
// @Security BearerAuth
// @Router /places/{id}/photo [delete]
func (pc *PlaceController) RemovePhoto(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	placeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := pc.Places.RemovePhoto(c.Request.Context(), userID, placeID); err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo removed."})
}

// MarkVisited records a visit. Repeating it keeps the first visit time and
// only replaces notes with a non-empty value.
// @Summary Mark a place as visited
// @Tags places
// @Security BearerAuth
// @Router /places/{id}/visit [patch]
func (pc *PlaceController) MarkVisited(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	placeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		Notes string `json:"notes"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
	}

	visit, err := pc.Visits.MarkVisited(c.Request.Context(), userID, placeID, input.Notes)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Place marked as visited.", "visit": visit})
}

// @Summary Rate a place from 1 to 5
// @Tags ratings
// @Security BearerAuth
// @Success 201 {object} models.PlaceRating
// @Router /places/{id}/ratings [post]
func (pc *PlaceController) RatePlace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	placeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		Rating int `json:"rating" binding:"required,min=1,max=5"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	rating, err := pc.Ratings.Rate(c.Request.Context(), userID, placeID, input.Rating)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, rating)
}

// @Summary Remove the caller's rating of a place
// @Tags ratings
// @Security BearerAuth
// @Router /places/{id}/ratings [delete]
func (pc *PlaceController) RemoveRating(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	placeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := pc.Ratings.Remove(c.Request.Context(), userID, placeID); err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Comment on a place
// @Tags comments
// @Security BearerAuth
// @Success 201 {object} services.CommentView
// @Router /places/{id}/comments [post]
func (pc *PlaceController) PostComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	placeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	comment, err := pc.Comments.Post(c.Request.Context(), userID, placeID, input.Text)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// @Summary List a place's comments, newest first
// @Tags comments
// @Security BearerAuth
// @Param page query integer false "Page number (default: 1)"
// @Param page_size query integer false "Page size (default: 20, max: 100)"
// @Router /places/{id}/comments [get]
func (pc *PlaceController) ListComments(c *gin.Context) {
	placeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var query struct {
		Page     int `form:"page"`
		PageSize int `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	comments, page, err := pc.Comments.List(c.Request.Context(), placeID, query.Page, query.PageSize)
	if err != nil {
		respondError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, paginated(comments, page))
}
