package middleware

import (
	"net/http" // HTTP status codes

	"rocketcoins/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// DirectorOnlyMiddleware checks the caller's role and status from the database
// on each request, so a demoted or disabled director loses access before the
// token expires.
func DirectorOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Director access required"})
			return
		}
		if !user.IsActive || !user.IsDirector() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Director access required"})
			return
		}
		c.Set(ContextRole, user.Role) // Fresh role for the handlers
		c.Next()
	}
}
