package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xLucasGitHubx/messagerie-api/internal/models"
)

const identityKey = "auth.userID"

// Middleware gates a route group behind bearer-token authentication.
// Missing tokens yield 401, failed verification 403, matching the
// behavior clients already depend on.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthenticated",
				Message: "Token manquant",
				Code:    http.StatusUnauthorized,
			})
			return
		}

		claims, err := s.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "invalid_token",
				Message: "Token invalide",
				Code:    http.StatusForbidden,
			})
			return
		}

		c.Set(identityKey, claims.UserID)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id set by Middleware
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
