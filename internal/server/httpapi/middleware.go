package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mediavault/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const subjectIDKey = "subjectID"

// AuthMiddleware verifies the Bearer token and stores the subject id in the
// gin context for handlers to pick up.
func AuthMiddleware(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		subjectID, err := auth.GetSubjectIDFromToken(parts[1], secretKey)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(subjectIDKey, subjectID)
		c.Next()
	}
}

func getSubjectIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(subjectIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
