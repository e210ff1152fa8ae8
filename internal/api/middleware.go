package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richdownie/healthme/internal/session"
)

const maxSessionIDLen = 128

// RequestIDMiddleware ensures every request has a correlation/request ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Next()
	}
}

// SessionMiddleware resolves the session id from the X-Session-ID header or the
// session cookie, minting one when neither is usable.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(session.HeaderName)
		if id == "" {
			if v, err := c.Cookie(session.CookieName); err == nil {
				id = v
			}
		}
		if id == "" || len(id) > maxSessionIDLen {
			id = session.NewID()
			c.SetCookie(session.CookieName, id, 0, "/", "", false, true)
		}
		c.Set("session_id", id)
		c.Writer.Header().Set(session.HeaderName, id)
		c.Next()
	}
}
