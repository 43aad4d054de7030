package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// ActorHeader identifies the user performing a request. Authentication
	// happens upstream; the service trusts this header.
	ActorHeader = "X-User-ID"
	// ActorKey is the gin context key of the actor id.
	ActorKey = "actor_id"
)

// ActorMiddleware reads the acting user id from X-User-ID. A missing header
// leaves the actor unset; a malformed one is rejected.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ActorHeader)
		if raw == "" {
			c.Next()
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success":   false,
				"message":   "❌ Invalid " + ActorHeader + " header",
				"error":     "user id must be a positive integer",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}

		c.Set(ActorKey, id)
		c.Next()
	}
}

// GetActorID returns the actor id, or 0 when the request carried none.
func GetActorID(c *gin.Context) int64 {
	return c.GetInt64(ActorKey)
}
