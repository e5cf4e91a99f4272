package user

import (
	"bitwise74/auth-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

type resetBody struct {
	Email    string `json:"email" binding:"required"`
	Code     string `json:"code" binding:"required,len=6,numeric"`
	Password string `json:"password" binding:"required"`
}

type changePasswordBody struct {
	Current  string `json:"current" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type twofaBody struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// UserPasswordForgot mails a reset code if the account exists. The answer
// is the same either way.
func UserPasswordForgot(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data emailBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	if err := d.Auth.RequestPasswordReset(c.Request.Context(), data.Email); err != nil {
		fail(c, requestID, err, "Failed to request password reset")
		return
	}

	c.Status(http.StatusAccepted)
}

func UserPasswordReset(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resetBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	if err := d.Auth.ConfirmPasswordReset(c.Request.Context(), data.Email, data.Code, data.Password); err != nil {
		fail(c, requestID, err, "Failed to reset password")
		return
	}

	c.Status(http.StatusNoContent)
}

func UserPasswordChange(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data changePasswordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	if err := d.Auth.ChangePassword(c.Request.Context(), userID, data.Current, data.Password); err != nil {
		fail(c, requestID, err, "Failed to change password")
		return
	}

	c.Status(http.StatusNoContent)
}

func UserTwofa(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data twofaBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	if err := d.Auth.SetTwofaEnabled(c.Request.Context(), userID, *data.Enabled); err != nil {
		fail(c, requestID, err, "Failed to toggle 2FA")
		return
	}

	c.JSON(http.StatusOK, gin.H{"twofaEnabled": *data.Enabled})
}
