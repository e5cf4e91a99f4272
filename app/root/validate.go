package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Validate answers for requests that passed the jwt middleware
func Validate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"userID": c.GetString("userID"),
		"role":   c.GetString("role"),
	})
}
