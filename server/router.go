package server

import (
	"time"

	"social-hub/domain/repository"
	"social-hub/infrastructure/realtime"
	httpHandler "social-hub/interfaces/http"
	"social-hub/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	publishHandler httpHandler.IPublishHandler,
	engagementHandler httpHandler.IEngagementHandler,
	credentialHandler httpHandler.ICredentialHandler,
	userRepository repository.IUser,
	publishHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository))

	api.POST("/publish", publishHandler.Publish)
	api.GET("/posts/:postId/engagement", engagementHandler.GetPostEngagement)
	api.POST("/engagement/sync", engagementHandler.SyncEngagement)

	api.GET("/connections", credentialHandler.ListConnections)
	api.POST("/connections/:platform", credentialHandler.Connect)
	api.DELETE("/connections/:platform", credentialHandler.Disconnect)

	if publishHub != nil {
		api.GET("/publish/stream", publishHub.Serve)
	}

	return router
}
