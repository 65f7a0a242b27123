package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cppla/treebbs/config"
	"github.com/cppla/treebbs/controllers"
	"github.com/cppla/treebbs/middleware"
	"github.com/cppla/treebbs/services"
	"github.com/cppla/treebbs/store"
	"github.com/cppla/treebbs/utils"
)

// SetupRouter wires routes, middlewares, and controllers. rc may be nil, in which case
// caching is off and revoked tokens are tracked in memory.
func SetupRouter(cfg config.AppConfig, db *gorm.DB, rc *redis.Client) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnw("gin access log disabled", "path", cfg.GinPath, "error", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		// browsers refuse credentialed requests against a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	users := store.NewUserStore(db, cfg.StoreTimeout)
	nodes := store.NewContentStore(db, cfg.StoreTimeout)
	codec := utils.NewTokenCodec(cfg.JWTSecret, cfg.SessionTTL)
	blacklist := utils.NewTokenBlacklist(rc)
	gate := services.NewGate(codec, blacklist, users)
	authService := services.NewAuthService(users, codec, blacklist)
	contentService := services.NewContentService(nodes, gate, utils.NewCache(rc))

	authController := controllers.NewAuthController(authService, cfg.CookieSecure)
	postController := controllers.NewPostController(contentService)

	r.GET("/health", func(ctx *gin.Context) {
		if err := users.Ping(ctx.Request.Context()); err != nil {
			utils.Sugar.Errorw("health check failed", "error", err)
			utils.Error(ctx, http.StatusServiceUnavailable, 50301, "database unavailable")
			return
		}
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(gate), authController.Me)

	// Mutations authenticate inside the content service so that a rejected
	// session never reaches the store.
	postsGroup := api.Group("/posts")
	postsGroup.GET("", postController.ListPosts)
	postsGroup.POST("", postController.CreatePost)
	postsGroup.GET("/:id", postController.GetPost)
	postsGroup.GET("/:id/comments", postController.GetPost)
	postsGroup.POST("/:id/comments", postController.CreateComment)
	postsGroup.PATCH("/:id", postController.UpdatePost)
	postsGroup.DELETE("/:id", postController.DeletePost)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
