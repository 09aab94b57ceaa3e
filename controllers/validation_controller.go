package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserLookup interface {
	Exists(ctx context.Context, column, value string) (bool, error)
}

type ValidationController struct {
	Users UserLookup
	Log   *zap.Logger
}

func NewValidationController(users UserLookup, log *zap.Logger) *ValidationController {
	return &ValidationController{Users: users, Log: log}
}

func (vc *ValidationController) ValidateUsername(c *gin.Context) {
	vc.exists(c, "username", c.Param("username"))
}

func (vc *ValidationController) ValidateEmail(c *gin.Context) {
	vc.exists(c, "email", c.Param("email"))
}

func (vc *ValidationController) exists(c *gin.Context, column, value string) {
	exists, err := vc.Users.Exists(c.Request.Context(), column, value)
	if err != nil {
		vc.Log.Error("availability check failed", zap.Error(err), zap.String("column", column))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check " + column})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}
