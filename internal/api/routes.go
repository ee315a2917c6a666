package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"atlasacademico/internal/api/middleware"
	"atlasacademico/internal/auth"
	"atlasacademico/internal/records"
	"atlasacademico/internal/storage"
)

// RouteDeps bundles everything the route tree needs.
type RouteDeps struct {
	DB                    *gorm.DB
	Store                 *records.Store
	AsynqClient           *asynq.Client
	AuthService           *auth.AuthService
	RedisClient           *redis.Client
	Logger                *slog.Logger
	StorageClient         *storage.Client
	ClamdAddr             string
	AllowedOrigins        []string
	LoginRateLimitPerHour int
	LoginLockThreshold    int
	LoginLockTTL          time.Duration
}

// RegisterRoutes mounts the /v1 API surface.
func RegisterRoutes(router *gin.Engine, deps RouteDeps) {
	authHandler := NewAuthHandler(
		deps.DB,
		deps.AuthService,
		deps.RedisClient,
		deps.AsynqClient,
		deps.Logger,
		deps.LoginRateLimitPerHour,
		deps.LoginLockThreshold,
		deps.LoginLockTTL,
	)
	profileHandler := NewProfileHandler(deps.Store, deps.AsynqClient, deps.Logger)
	recordsHandler := NewRecordsHandler(deps.Store, deps.Logger)
	exportHandler := NewExportHandler(deps.DB, deps.AsynqClient, deps.StorageClient, deps.RedisClient, deps.Logger)
	avatarHandler := NewAvatarHandler(deps.Store, deps.StorageClient, deps.Logger, deps.ClamdAddr)
	wsHandler := NewWsHandler(deps.RedisClient, deps.AuthService, deps.Logger, deps.AllowedOrigins)
	authMiddleware := middleware.AuthMiddleware(deps.AuthService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		profileGroup := v1.Group("/profile")
		profileGroup.Use(authMiddleware)
		{
			profileGroup.GET("", profileHandler.GetOwnProfile)
			profileGroup.PUT("", profileHandler.UpdateOwnProfile)
			profileGroup.POST("/avatar", avatarHandler.Upload)
		}

		// Public directory endpoints.
		v1.GET("/profiles/search", profileHandler.SearchProfiles)
		v1.GET("/profiles/suggest", profileHandler.SuggestProfiles)
		v1.GET("/profiles/:id", profileHandler.GetPublicProfile)

		recordsGroup := v1.Group("/records")
		recordsGroup.Use(authMiddleware)
		{
			recordsGroup.GET("/:table", recordsHandler.List)
			recordsGroup.POST("/:table", recordsHandler.Create)
			recordsGroup.DELETE("/:table/:id", recordsHandler.Delete)
		}

		curriculumGroup := v1.Group("/curriculum")
		{
			curriculumGroup.GET("/fallback/:token", exportHandler.DownloadFallback)

			authed := curriculumGroup.Group("")
			authed.Use(authMiddleware)
			{
				authed.POST("/export", exportHandler.RequestExport)
				authed.GET("/latest", exportHandler.GetLatestExport)
				authed.GET("/:id/download-link", exportHandler.GetDownloadLink)
			}
		}
	}
}
