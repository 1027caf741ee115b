package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ownerHeader = "X-User-ID"

	// OwnerKey is the gin context key the owner id is stored under.
	OwnerKey = "ownerID"
)

// OwnerMiddleware resolves the calling owner from the X-User-ID header set
// by the gateway. Every scoped route requires it.
func OwnerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ownerHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing user id",
			})
			return
		}

		ownerID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid user id",
			})
			return
		}

		c.Set(OwnerKey, ownerID)
		c.Next()
	}
}

// Owner returns the owner id resolved by OwnerMiddleware.
func Owner(c *gin.Context) uuid.UUID {
	v, _ := c.Get(OwnerKey)
	id, _ := v.(uuid.UUID)
	return id
}
