package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ContextSessionIDKey = "session_id"

// Session resolves the visitor's session identifier from the named cookie,
// issuing a fresh opaque token transparently when none is present. The
// cookie max-age mirrors the history TTL so the identifier and its stored
// conversation expire together.
func Session(cookieName string, maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cookieName)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(cookieName, sessionID, maxAgeSeconds, "/", "", false, true)
		}
		c.Set(ContextSessionIDKey, sessionID)
		c.Next()
	}
}
