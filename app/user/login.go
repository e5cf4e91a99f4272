package user

import (
	"bitwise74/auth-api/internal"
	"bitwise74/auth-api/internal/auth"
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

type codeBody struct {
	PartialToken string `json:"partialToken" binding:"required"`
	Code         string `json:"code" binding:"required,len=6,numeric"`
}

type resendBody struct {
	PartialToken string `json:"partialToken" binding:"required"`
}

// UserLogin checks the password. Accounts with 2FA get a partial token and
// an e-mailed code instead of a session.
func UserLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	res, err := d.Auth.Login(c.Request.Context(), auth.LoginInput{
		Email:    data.Email,
		Password: data.Password,
		Remember: data.Remember,
	})
	if err != nil {
		fail(c, requestID, err, "Failed to log in user")
		return
	}

	if res.TwofaRequired() {
		c.JSON(http.StatusAccepted, pendingJSON(res.Pending))
		return
	}

	setSession(c, res.Session)
}

// UserLogin2FA trades a partial token and the mailed code for a session
func UserLogin2FA(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data codeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	s, err := d.Auth.ConfirmLogin2FA(c.Request.Context(), data.PartialToken, data.Code)
	if err != nil {
		fail(c, requestID, err, "Failed to confirm login code")
		return
	}

	setSession(c, s)
}

// UserCodeResend mails a fresh code for a pending login. The old partial
// token stops working.
func UserCodeResend(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resendBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	p, err := d.Auth.ResendCode(c.Request.Context(), data.PartialToken)
	if err != nil {
		fail(c, requestID, err, "Failed to resend code")
		return
	}

	c.JSON(http.StatusOK, pendingJSON(p))
}
