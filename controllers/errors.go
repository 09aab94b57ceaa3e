package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/services"
	"github.com/roadrunner/api-go/validation"
	"go.uber.org/zap"
)

const msgValidationFailed = "Validation failed"

// respondError maps a service error to its HTTP status and body. Unexpected
// errors are logged and answered with a generic 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		msg := verr.Message
		if msg == "" {
			msg = msgValidationFailed
		}
		body := gin.H{"error": msg}
		if len(verr.Fields) > 0 {
			body["fields"] = verr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid or expired"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		if log != nil {
			log.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// respondBindError answers a failed ShouldBind* call with a 400.
func respondBindError(c *gin.Context, err error) {
	if fields, ok := validation.FromBinding(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFailed, "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}
