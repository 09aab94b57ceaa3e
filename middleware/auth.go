package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/utils"
)

// AccountChecker reports whether a user still holds an active account.
type AccountChecker interface {
	Active(ctx context.Context, userID uint) (bool, error)
}

// AuthMiddleware accepts only access tokens signed by tokens. With a non-nil
// accounts it also rejects tokens of deleted or deactivated users.
func AuthMiddleware(tokens *utils.TokenManager, accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		token, ok := utils.BearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := tokens.Parse(token, utils.TokenTypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if accounts != nil {
			active, err := accounts.Active(c.Request.Context(), claims.UserID)
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			if !active {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
		}

		utils.SetUser(c, &utils.UserClaims{
			UserID:  claims.UserID,
			TokenID: claims.Id,
		})

		c.Next()
	}
}
