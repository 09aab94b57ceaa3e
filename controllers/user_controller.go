package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/services"
	"go.uber.org/zap"
)

type ProfileService interface {
	Get(ctx context.Context, userID uint) (*services.UserView, error)
	Update(ctx context.Context, userID uint, patch services.ProfilePatch) (*services.UserView, error)
	SetPhoto(ctx context.Context, userID uint, file services.Upload) (*services.UserView, error)
	RemovePhoto(ctx context.Context, userID uint) error
	Delete(ctx context.Context, userID uint) error
}

// UserController serves the caller's own profile.
type UserController struct {
	Users ProfileService
	Log   *zap.Logger
}

func NewUserController(users ProfileService, log *zap.Logger) *UserController {
	return &UserController{Users: users, Log: log}
}

// @Summary Get the current user's profile
// @Tags profile
// @Security BearerAuth
// @Success 200 {object} services.UserView
// @Router /profile [get]
func (uc *UserController) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	profile, err := uc.Users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, uc.Log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile applies a partial update. Nothing is saved unless every
// supplied field is valid.
// @Summary Update the current user's profile
// @Tags profile
// @Security BearerAuth
// @Router /profile [patch]
func (uc *UserController) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var patch services.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	profile, err := uc.Users.Update(c.Request.Context(), userID, patch)
	if err != nil {
		respondError(c, uc.Log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// @Summary Delete the current user's account
// @Tags profile
// @Security BearerAuth
// @Router /profile [delete]
func (uc *UserController) DeleteAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := uc.Users.Delete(c.Request.Context(), userID); err != nil {
		respondError(c, uc.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhoto expects a multipart "profile_photo" file.
// @Summary Replace the profile photo
// @Tags profile
// @Security BearerAuth
// @Accept multipart/form-data
// @Router /profile/photo [put]
func (uc *UserController) UploadPhoto(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	upload, file, err := formFile(c, "profile_photo", mediaPhoto)
	if err != nil {
		respondError(c, uc.Log, err)
		return
	}
	defer file.Close()

	profile, err := uc.Users.SetPhoto(c.Request.Context(), userID, *upload)
	if err != nil {
		respondError(c, uc.Log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// @Summary Remove the profile photo
// @Tags profile
// @Security BearerAuth
// @Router /profile/photo [delete]
func (uc *UserController) RemovePhoto(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := uc.Users.RemovePhoto(c.Request.Context(), userID); err != nil {
		respondError(c, uc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile photo removed."})
}
