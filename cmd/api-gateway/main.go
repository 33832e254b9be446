package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/offday-api/api/swagger"
	"github.com/noah-isme/offday-api/internal/handler"
	"github.com/noah-isme/offday-api/internal/middleware"
	"github.com/noah-isme/offday-api/internal/models"
	"github.com/noah-isme/offday-api/internal/repository"
	"github.com/noah-isme/offday-api/internal/service"
	"github.com/noah-isme/offday-api/pkg/cache"
	"github.com/noah-isme/offday-api/pkg/config"
	"github.com/noah-isme/offday-api/pkg/database"
	"github.com/noah-isme/offday-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/offday-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/offday-api/pkg/middleware/requestid"
)

// @title Offday Management API
// @version 1.0.0
// @description Leave request workflow for teachers, directors and the chairman
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Availability.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Availability.CacheTTL, logr, true)
		}
	}

	requestRepo := repository.NewRequestRepository(db)
	userRepo := repository.NewUserRepository(db)

	authService := service.NewAuthService(userRepo, cfg.JWT, nil, logr)
	requestService := service.NewRequestService(requestRepo, userRepo, cacheService, metrics, nil, logr)
	availabilityService := service.NewAvailabilityService(userRepo, cacheService, logr)
	userService := service.NewUserService(userRepo, nil, logr)
	exportService := service.NewExportService(requestRepo, cfg.Exports.MaxRows, cfg.Exports.Enabled, logr)

	authHandler := handler.NewAuthHandler(authService, logr)
	requestHandler := handler.NewRequestHandler(requestService, logr)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService, logr)
	userHandler := handler.NewUserHandler(userService, logr)
	exportHandler := handler.NewExportHandler(exportService, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(authService))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)

	requests := authed.Group("/requests")
	requests.POST("", requestHandler.Create)
	requests.GET("", requestHandler.List)
	requests.GET("/export",
		middleware.RequireRoles(models.RoleDirector, models.RoleChairman),
		exportHandler.RequestRegister)
	requests.GET("/:id", requestHandler.Get)
	requests.PUT("/:id", requestHandler.Update)
	requests.DELETE("/:id", requestHandler.Delete)
	requests.PATCH("/:id/status",
		middleware.RequireRoles(models.RoleDirector, models.RoleChairman),
		requestHandler.Decide)

	authed.GET("/users/status", availabilityHandler.List)

	profile := authed.Group("/profile")
	profile.GET("", userHandler.Profile)
	profile.PUT("", userHandler.UpdateProfile)
	profile.GET("/offdays", userHandler.Offdays)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
