package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/handler"
	"github.com/pagehub/pagehub-backend/internal/middleware"
	"github.com/pagehub/pagehub-backend/internal/response"
	"github.com/pagehub/pagehub-backend/internal/service"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Page    *handler.PageHandler
	Publish *handler.PublishHandler
	WS      *handler.WSHandler
	Health  *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	authLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(middleware.Recovery(log))

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the request logger and handlers can read it.
	router.Use(response.RequestIDMiddleware(log))
	router.Use(middleware.RequestLogger(log))

	// WebSocket upgrades must reach the handler with an untouched writer.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		SkipPaths: []string{"/ws/"},
	}))

	router.GET("/health", handlers.Health.Health)

	router.NoRoute(func(c *gin.Context) {
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, "route not found")
	})

	api := router.Group("/api")
	api.Use(middleware.NoStore())

	requireAdmin := []gin.HandlerFunc{
		middleware.RequireAdminJWT(authService),
		middleware.CheckAdminSession(authService, log),
	}

	// ─── 1. Admin Accounts ─────────────────────────────────────────────
	admins := api.Group("/admins")
	{
		// Public, rate limited per client IP.
		admins.POST("/admin-signup", authLimiter.Middleware(), handlers.Auth.AdminSignUp)
		admins.POST("/admin-login", authLimiter.Middleware(), handlers.Auth.AdminLogin)
		admins.POST("/reset-password", authLimiter.Middleware(), handlers.Auth.ResetPassword)

		me := admins.Group("")
		me.Use(requireAdmin...)
		{
			me.POST("/logout", handlers.Auth.AdminLogout)
			me.GET("/me", handlers.Auth.GetAdminProfile)
			me.GET("/me/activity", handlers.Auth.ListActivity)
			me.PUT("/me/password", handlers.Auth.ChangePassword)
		}
	}

	// ─── 2. Page Registry & Publishing (JWT + Session) ─────────────────
	pages := api.Group("/facebook-pages")
	pages.Use(requireAdmin...)
	{
		pages.POST("/facebook-login", handlers.Page.LinkPages)
		pages.POST("/create-page-post", handlers.Publish.CreatePagePost)
		pages.POST("/create-pages-post", handlers.Publish.CreatePagesPost)

		pages.GET("", handlers.Page.ListPages)
		pages.GET("/:pageId", handlers.Page.GetPage)
		pages.GET("/:pageId/posts", handlers.Page.GetPosts)
		pages.GET("/:pageId/about", handlers.Page.GetAbout)
		pages.GET("/:pageId/insights", handlers.Page.GetInsights)
		pages.GET("/:pageId/posts/:postId/insights", handlers.Page.GetPostInsights)
	}

	// ─── 3. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireAdminWSAuth(authService),
		middleware.CheckAdminSession(authService, log),
	)
	{
		ws.GET("/publish/:dispatch_id/progress", handlers.WS.PublishProgressStream)
	}

	return router
}
