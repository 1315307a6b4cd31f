package api

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware guards the evaluate/ledger/history routes with a static
// bearer token from API_AUTH_TOKEN. When the variable is unset the
// middleware passes everything through (local development); in release
// mode that state is logged loudly at startup since it leaves the
// decision endpoints open.
//
// Health and the websocket stream stay outside this middleware.
func AuthMiddleware() gin.HandlerFunc {
	token := os.Getenv("API_AUTH_TOKEN")

	if token == "" && os.Getenv("GIN_MODE") == "release" {
		log.Println("[SECURITY WARNING] API_AUTH_TOKEN is not set in release mode — " +
			"evaluate, ledger, and history endpoints are open. " +
			"Set API_AUTH_TOKEN to enforce authentication.")
	}

	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing Authorization header",
				"hint":  "Use: Authorization: Bearer <API_AUTH_TOKEN>",
			})
			return
		}

		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid Authorization header format"})
			return
		}

		// Constant-time compare so token length/content can't be probed
		// through response timing.
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Next()
	}
}
