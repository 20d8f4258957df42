package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// Serialize runs the wrapped handlers one request at a time. Requests that
// arrive while another is running wait for it to finish, or give up when
// their context ends first.
func Serialize() gin.HandlerFunc {
	sem := semaphore.NewWeighted(1)

	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":    "REQUEST_CANCELLED",
					"message": "Request cancelled while waiting for a previous one",
				},
			})
			return
		}
		defer sem.Release(1)

		c.Next()
	}
}
