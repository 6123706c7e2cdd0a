package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"voicerelay/internal/auth"
	"voicerelay/internal/domain"
	"voicerelay/internal/users"
)

const userKey = "current_user"

// AuthRequired validates the Authorization bearer token and resolves
// it to a known user before any room endpoint runs.
func AuthRequired(verifier *auth.Verifier, dir *users.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		userID, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		user, ok := dir.Lookup(userID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	return c.MustGet(userKey).(*domain.User)
}
