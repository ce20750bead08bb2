package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chathub/tools/errs"
	"chathub/tools/security"
)

// Context key the downstream handlers read the caller identity from.
const CtxUserIDKey = "userID"

// BearerToken extracts the credential from the Authorization header,
// falling back to the token query parameter (the websocket handshake path).
func BearerToken(c *gin.Context) string {
	if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return strings.TrimSpace(authz[len("bearer "):])
		}
		return authz
	}
	return strings.TrimSpace(c.Query("token"))
}

// Middleware rejects requests without a valid token and stores the
// authenticated user ID into the gin context.
func Middleware(opts security.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errs.ErrUnauthorized.Msg})
			return
		}
		userID, err := security.VerifyUserID(opts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errs.MsgOf(err)})
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID reads the identity placed by Middleware. Empty when the route
// was not guarded.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
