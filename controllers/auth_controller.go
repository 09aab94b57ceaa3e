package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/services"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID uint, refreshToken string) error
	GoogleSignIn(ctx context.Context, in services.GoogleInput) (*services.AuthResult, error)
}

type AuthController struct {
	Auth AuthService
	Log  *zap.Logger
}

func NewAuthController(auth AuthService, log *zap.Logger) *AuthController {
	return &AuthController{Auth: auth, Log: log}
}

// Register creates an account and signs it in.
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} services.AuthResult
// @Router /register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := ac.Auth.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"tokens":  result.Tokens,
		"user":    result.User,
	})
}

// Login accepts a username or an email as identifier.
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} services.AuthResult
// @Failure 401 {object} map[string]string
// @Router /login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := ac.Auth.Login(c.Request.Context(), input.Identifier, input.Password)
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Exchange a refresh token for a new access token
// @Tags auth
// @Router /token/refresh [post]
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var input struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	access, err := ac.Auth.Refresh(c.Request.Context(), input.Refresh)
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// @Summary Revoke a refresh token
// @Tags auth
// @Security BearerAuth
// @Router /logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	// A missing body is reported by the service as a missing token.
	_ = c.ShouldBindJSON(&input)

	if err := ac.Auth.Logout(c.Request.Context(), userID, input.RefreshToken); err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully."})
}

// GoogleLogin signs in with a Google ID token or an authorization code.
// @Summary Google sign-in
// @Tags auth
// @Router /auth/google [post]
func (ac *AuthController) GoogleLogin(c *gin.Context) {
	var input services.GoogleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := ac.Auth.GoogleSignIn(c.Request.Context(), input)
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
