package api

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// BasicAuth protects a route group with the base64 credentials in PROTECT_BASIC. When the
// variable is unset the routes are open.
func BasicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := os.Getenv("PROTECT_BASIC")
		if expected == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if subtle.ConstantTimeCompare([]byte(authHeader), []byte("Basic "+expected)) != 1 {
			c.Header("WWW-Authenticate", "Basic realm=Restricted")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}
