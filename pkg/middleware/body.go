package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for legit requests
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "body_too_large",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()

		var maxErr *http.MaxBytesError
		if last := c.Errors.Last(); last != nil && errors.As(last.Err, &maxErr) && !c.Writer.Written() {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "body_too_large",
				"requestID": c.GetString("requestID"),
			})
		}
	}
}
