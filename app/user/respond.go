package user

import (
	"bitwise74/auth-api/internal/auth"
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/pkg/middleware"
	"bitwise74/auth-api/pkg/validators"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// fail writes the error response for err. Only unexpected errors are logged.
func fail(c *gin.Context, requestID string, err error, msg string) {
	switch {
	case errors.Is(err, validators.ErrEmailEmpty),
		errors.Is(err, validators.ErrEmailInvalid),
		errors.Is(err, validators.ErrEmailTooLong):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "invalid_email",
			"message":   err.Error(),
			"requestID": requestID,
		})
		return
	case errors.Is(err, validators.ErrPasswordEmpty),
		errors.Is(err, validators.ErrPasswordTooShort),
		errors.Is(err, validators.ErrPasswordTooLong),
		errors.Is(err, validators.ErrPasswordInvalid):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "invalid_password",
			"message":   err.Error(),
			"requestID": requestID,
		})
		return
	case errors.Is(err, validators.ErrFileTypeUnsupported):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "invalid_avatar",
			"message":   validators.ErrFileTypeUnsupported.Error(),
			"requestID": requestID,
		})
		return
	}

	status, code := common.Status(err)
	if status == http.StatusInternalServerError {
		zap.L().Error(msg, zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(status, gin.H{
		"error":     code,
		"requestID": requestID,
	})
}

func badBody(c *gin.Context, requestID string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "invalid_body",
		"requestID": requestID,
	})

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
}

func pendingJSON(p *auth.Pending) gin.H {
	return gin.H{
		"twofaRequired": true,
		"partialToken":  p.Token,
		"purpose":       p.Purpose,
		"expiresAt":     p.ExpiresAt,
	}
}

// setSession hands the session token to the client both in the body and as
// an http only cookie
func setSession(c *gin.Context, s *auth.Session) {
	sslEnabled := viper.GetBool("host.ssl.enabled")
	maxAge := int(time.Until(s.ExpiresAt).Seconds())

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, s.Token, maxAge, "/", "", sslEnabled, true)
	c.SetCookie("logged_in", "1", maxAge, "/", "", sslEnabled, false)

	c.JSON(http.StatusOK, gin.H{
		"userID":    s.UserID,
		"role":      s.Role,
		"token":     s.Token,
		"expiresAt": s.ExpiresAt,
	})
}

func clearSession(c *gin.Context) {
	sslEnabled := viper.GetBool("host.ssl.enabled")

	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", sslEnabled, true)
	c.SetCookie("logged_in", "", -1, "/", "", sslEnabled, false)
}
