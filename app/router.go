package app

import (
	"bitwise74/auth-api/app/root"
	"bitwise74/auth-api/app/user"
	"bitwise74/auth-api/internal"
	"bitwise74/auth-api/pkg/middleware"
	"context"
	"net/http"
	"strings"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// JSON bodies are small, avatars are checked on their own
const maxBodySize = 64 << 10

// NewRouter registers every route. ctx bounds the lifetime of background
// helpers such as the rate limiter cleanup.
func NewRouter(ctx context.Context, d *internal.Deps) *gin.Engine {
	router := gin.New()

	origins := strings.Split(viper.GetString("host.cors"), ",")

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zap.Field {
				return []zap.Field{
					zap.String("request_id", c.GetString("requestID")),
					zap.String("userID", c.GetString("userID")),
				}
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	rateLimit := viper.GetInt("security.rate_limit")

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
	})
	go limiter.Cleanup(ctx)

	jwt := middleware.NewJWTMiddleware(d.Auth)
	turnstile := middleware.NewTurnstileMiddleware(middleware.TurnstileConfig{
		Enabled: viper.GetBool("cloudflare.turnstile.enabled"),
		Secret:  viper.GetString("cloudflare.turnstile.secret_token"),
	})
	body := middleware.BodySizeLimiter(maxBodySize)
	avatarBody := middleware.BodySizeLimiter(viper.GetInt64("storage.max_avatar_size") + 1<<20)

	cacheStore := newCacheStore()

	if viper.GetBool("metrics.enabled") {
		// GET /metrics			-> Prometheus metrics
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if d.Local != nil {
		// GET /media/*			-> Locally stored avatars
		router.Static(internal.MediaPath, d.Local.Root)
	}

	m := router.Group("/api", limiter.Middleware())
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Validates a session token
		m.GET("/validate", jwt, root.Validate)
	}

	u := m.Group("/users", body)
	{
		// POST /api/users 			-> Registers a new user
		u.POST("", turnstile, func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/users/verify		-> Confirms the registration code
		u.POST("/verify", func(c *gin.Context) { user.UserVerify(c, d) })

		// POST /api/users/verify/resend	-> Mails a new registration code
		u.POST("/verify/resend", func(c *gin.Context) { user.UserVerifyResend(c, d) })

		// POST /api/users/login 		-> Logs in a user, may require a 2FA code
		u.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/users/login/2fa		-> Confirms a login code
		u.POST("/login/2fa", func(c *gin.Context) { user.UserLogin2FA(c, d) })

		// POST /api/users/codes/resend	-> Mails a new login code
		u.POST("/codes/resend", func(c *gin.Context) { user.UserCodeResend(c, d) })

		// POST /api/users/password/forgot	-> Mails a password reset code
		u.POST("/password/forgot", turnstile, func(c *gin.Context) { user.UserPasswordForgot(c, d) })

		// POST /api/users/password/reset	-> Sets a new password using a reset code
		u.POST("/password/reset", func(c *gin.Context) { user.UserPasswordReset(c, d) })

		// GET /api/users/:id			-> Returns someone's public profile
		u.GET("/:id", cacheFor(cacheStore, 60), func(c *gin.Context) { user.UserFetch(c, d) })
	}

	me := u.Group("/me", jwt)
	{
		// GET /api/users/me			-> Returns the logged in user
		me.GET("", func(c *gin.Context) { user.UserMe(c, d) })

		// PATCH /api/users/me		-> Updates the profile
		me.PATCH("", func(c *gin.Context) { user.UserUpdate(c, d) })

		// DELETE /api/users/me		-> Deletes the account
		me.DELETE("", func(c *gin.Context) { user.UserDelete(c, d) })

		// PUT /api/users/me/password		-> Changes the password
		me.PUT("/password", func(c *gin.Context) { user.UserPasswordChange(c, d) })

		// PUT /api/users/me/2fa		-> Turns 2FA on or off
		me.PUT("/2fa", func(c *gin.Context) { user.UserTwofa(c, d) })

		// DELETE /api/users/me/avatar	-> Removes the avatar
		me.DELETE("/avatar", func(c *gin.Context) { user.UserAvatarDelete(c, d) })
	}

	// POST /api/users/me/avatar		-> Uploads a new avatar
	m.POST("/users/me/avatar", avatarBody, jwt, func(c *gin.Context) { user.UserAvatarUpload(c, d) })

	return router
}

func newCacheStore() persist.CacheStore {
	if viper.GetString("cache.type") == "redis" {
		return persist.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		}))
	}

	return persist.NewMemoryStore(time.Minute)
}

func cacheFor(store persist.CacheStore, sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
