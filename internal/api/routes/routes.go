package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/lectura-ai/backend/internal/api/handlers"
)

type Deps struct {
	Health *handlers.HealthHandler
	Video  *handlers.VideoHandler
	Chat   *handlers.ChatHandler
	WS     *handlers.WSHandler

	// Static mounts for raw uploads and pipeline artifacts.
	UploadDir    string
	ProcessedDir string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}
	if d.ProcessedDir != "" {
		r.Static("/processed", d.ProcessedDir)
	}

	v1 := r.Group("/api/v1")

	v1.GET("/health", d.Health.Health)
	v1.GET("/health/detailed", d.Health.DetailedHealth)

	v1.POST("/videos/upload", d.Video.Upload)
	v1.GET("/videos", d.Video.List)
	v1.GET("/videos/:video_id", d.Video.Get)
	v1.GET("/videos/:video_id/status", d.Video.Status)
	v1.DELETE("/videos/:video_id", d.Video.Delete)

	v1.POST("/chat/sessions", d.Chat.CreateSession)
	v1.GET("/chat/sessions/:session_id/history", d.Chat.SessionHistory)
	v1.GET("/chat/suggestions/:video_id", d.Chat.Suggestions)
	v1.GET("/chat/search/:video_id", d.Chat.Search)
	v1.POST("/chat/:video_id", d.Chat.Chat)

	// WebSocket
	v1.GET("/ws/videos/:video_id/status", d.WS.VideoStatusWS)
}
