package middleware

import (
	"net/http"
	"strings"

	"craftory-backend/models"
	"craftory-backend/services"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = "userID"
	EmailKey  = "userEmail"
	RoleKey   = "userRole"
)

// AuthMiddleware validates the bearer token and stashes identity on the
// context.
func AuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			return
		}

		if id, ok := claims["user_id"].(string); ok {
			c.Set(UserIDKey, id)
		}
		if email, ok := claims["email"].(string); ok {
			c.Set(EmailKey, email)
		}
		if role, ok := claims["role"].(string); ok {
			c.Set(RoleKey, role)
		}
		c.Next()
	}
}

// AdminOnly requires an authenticated admin role; it must run after
// AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(RoleKey); role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
			return
		}
		c.Next()
	}
}

// GetUserEmail returns the authenticated email, or "" for guests.
func GetUserEmail(c *gin.Context) string {
	if val, exists := c.Get(EmailKey); exists {
		return val.(string)
	}
	return ""
}
