package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/codeby/softmarket/config"
	"github.com/codeby/softmarket/controllers"
	"github.com/codeby/softmarket/middleware"
	"github.com/codeby/softmarket/storage"
	"github.com/codeby/softmarket/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, store *storage.Store) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Uploaded demo videos and archives are served straight from the store root
	r.Static("/uploads", store.Root())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	softwareController := controllers.NewSoftwareController(db, store, cfg)
	purchaseController := controllers.NewPurchaseController(db)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	software := api.Group("/software")
	software.GET("/list", softwareController.List)
	software.GET("/:id", softwareController.Get)

	software.POST("/upload", middleware.AuthRequired(), softwareController.Upload)
	software.PUT("/update/:id", middleware.AuthRequired(), softwareController.Update)
	// delete gates on admin inside the handler so any non-admin caller,
	// anonymous included, gets the same 403
	software.DELETE("/delete/:id", middleware.Identity(), softwareController.Delete)
	software.GET("/my-uploads", middleware.AuthRequired(), softwareController.MyUploads)
	software.GET("/my-purchases", middleware.AuthRequired(), purchaseController.MyPurchases)
	software.POST("/purchase/:softwareId", middleware.AuthRequired(), middleware.RateLimitMiddleware(), purchaseController.Purchase)
	software.GET("/debug/:id", middleware.AuthRequired(), softwareController.Debug)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
