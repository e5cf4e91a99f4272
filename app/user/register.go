package user

import (
	"bitwise74/auth-api/internal"
	"bitwise74/auth-api/internal/auth"
	"bitwise74/auth-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`

	Name      string   `json:"name" binding:"max=64"`
	Age       *int     `json:"age" binding:"omitempty,min=13,max=150"`
	City      string   `json:"city" binding:"max=64"`
	Pronouns  string   `json:"pronouns" binding:"max=32"`
	Bio       string   `json:"bio" binding:"max=500"`
	Format    string   `json:"format" binding:"max=32"`
	Interests []string `json:"interests" binding:"max=20,dive,max=32"`
}

type verifyBody struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type emailBody struct {
	Email string `json:"email" binding:"required"`
}

// UserRegister creates an account and mails it a registration code
func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	reg, err := d.Auth.Register(c.Request.Context(), auth.RegisterInput{
		Email:    data.Email,
		Password: data.Password,
		Profile: model.Profile{
			Name:      data.Name,
			Age:       data.Age,
			City:      data.City,
			Pronouns:  data.Pronouns,
			Bio:       data.Bio,
			Format:    data.Format,
			Interests: data.Interests,
		},
	})
	if err != nil {
		fail(c, requestID, err, "Failed to register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"userID":    reg.UserID,
		"expiresAt": reg.Pending.ExpiresAt,
	})
}

// UserVerify confirms the registration code
func UserVerify(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data verifyBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	if err := d.Auth.ConfirmRegistration(c.Request.Context(), data.Email, data.Code); err != nil {
		fail(c, requestID, err, "Failed to confirm registration")
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// UserVerifyResend mails a new registration code. Always answers 202 so it
// can't be used to probe for accounts.
func UserVerifyResend(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data emailBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, requestID, err)
		return
	}

	if err := d.Auth.ResendRegistration(c.Request.Context(), data.Email); err != nil {
		fail(c, requestID, err, "Failed to resend registration code")
		return
	}

	c.Status(http.StatusAccepted)
}
