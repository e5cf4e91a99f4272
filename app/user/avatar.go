package user

import (
	"bitwise74/auth-api/internal"
	"bitwise74/auth-api/pkg/validators"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// UserAvatarUpload replaces the avatar with the "avatar" form file
func UserAvatarUpload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fh, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "no_file",
			"requestID": requestID,
		})
		return
	}

	status, av, err := validators.AvatarValidator(fh, viper.GetInt64("storage.max_avatar_size"))
	if err != nil {
		if status == http.StatusInternalServerError {
			zap.L().Error("Failed to read avatar", zap.Error(err), zap.String("requestID", requestID))

			c.JSON(status, gin.H{
				"error":     "internal_error",
				"requestID": requestID,
			})
			return
		}

		c.JSON(status, gin.H{
			"error":     "invalid_avatar",
			"message":   err.Error(),
			"requestID": requestID,
		})
		return
	}

	url, err := d.Avatars.Upload(c.Request.Context(), userID, av)
	if err != nil {
		fail(c, requestID, err, "Failed to upload avatar")
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatarURL": url})
}

func UserAvatarDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	if err := d.Avatars.Remove(c.Request.Context(), userID); err != nil {
		fail(c, requestID, err, "Failed to remove avatar")
		return
	}

	c.Status(http.StatusNoContent)
}
