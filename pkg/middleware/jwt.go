package middleware

import (
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/model"
	"bitwise74/auth-api/pkg/security"
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const AuthCookie = "auth_token"

// Authenticator resolves a full session token to its user. Partial tokens
// must be rejected.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*security.Identity, *model.User, error)
}

// NewJWTMiddleware accepts a full session token either as a Bearer
// Authorization header or as the auth_token cookie. On success userID and
// role are set on the context.
func NewJWTMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "missing_token",
				"requestID": requestID,
			})
			return
		}

		id, user, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			status, code := common.Status(err)
			if status == http.StatusInternalServerError {
				zap.L().Error("Failed to authenticate request", zap.Error(err), zap.String("requestID", requestID))
			}
			// A deleted account behind a still valid token
			if status == http.StatusNotFound {
				status, code = http.StatusUnauthorized, "token_invalid"
			}

			c.AbortWithStatusJSON(status, gin.H{
				"error":     code,
				"requestID": requestID,
			})
			return
		}

		c.Set("userID", id.UserID)
		c.Set("role", id.Role)
		c.Set("user", user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}

	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return cookie
	}

	return ""
}
