package user

import (
	"bitwise74/auth-api/internal"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type deleteBody struct {
	Password string `json:"password" binding:"required"`
}

// UserDelete removes the account after a password check
func UserDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data deleteBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	u, err := d.Auth.DeleteAccount(c.Request.Context(), userID, data.Password)
	if err != nil {
		fail(c, requestID, err, "Failed to delete account")
		return
	}

	if u.AvatarKey != "" {
		go func(key string) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			d.Avatars.Delete(ctx, key)
		}(u.AvatarKey)
	}

	clearSession(c)
	c.Status(http.StatusNoContent)
}
