package api

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/relation-engine/config"
	_ "github.com/d60-Lab/relation-engine/docs"
	"github.com/d60-Lab/relation-engine/internal/api/handler"
	"github.com/d60-Lab/relation-engine/internal/api/middleware"
	"github.com/d60-Lab/relation-engine/internal/service"
)

// NewRouter 组装中间件与 /api/v1 路由
func NewRouter(cfg *config.Config, relService service.RelationshipService) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Logger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h := handler.New(relService)
	auth := middleware.Auth(cfg.JWT.Secret, cfg.JWT.Issuer, relService)
	swipeLimit := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	v1 := r.Group("/api/v1")
	v1.POST("/accounts", h.Register)

	authed := v1.Group("", auth)
	{
		accounts := authed.Group("/accounts")
		accounts.GET("/me", h.Me)
		accounts.PUT("/me/privacy", h.SetPrivacy)
	}
	{
		rel := authed.Group("/relations")
		rel.POST("/follow", h.Follow)
		rel.POST("/unfollow", h.Unfollow)
		rel.DELETE("/followers/:user_id", h.RemoveFollower)
		rel.GET("/:user_id/following", h.ListFollowing)
		rel.GET("/:user_id/fans", h.ListFans)
		rel.GET("/:user_id/counts", h.Counts)
		rel.GET("/:user_id/status", h.Status)
	}
	{
		fr := authed.Group("/follow-requests")
		fr.GET("/incoming", h.ListIncomingRequests)
		fr.GET("/outgoing", h.ListOutgoingRequests)
		fr.POST("/:id/approve", h.ApproveRequest)
		fr.POST("/:id/reject", h.RejectRequest)
		fr.POST("/:id/cancel", h.CancelRequest)
	}
	{
		dating := authed.Group("/dating")
		dating.POST("/swipes", swipeLimit.Middleware(), h.Swipe)
		dating.GET("/swipes/:target_id", h.GetSwipe)
		dating.GET("/matches", h.ListMatches)
		dating.DELETE("/matches/:id", h.Unmatch)
	}
	{
		n := authed.Group("/notifications")
		n.GET("", h.ListNotifications)
		n.GET("/unread-count", h.UnreadCount)
		n.POST("/read-all", h.MarkAllRead)
		n.POST("/:id/read", h.MarkRead)
		n.GET("/preferences", h.GetPreferences)
		n.PUT("/preferences", h.UpdatePreferences)
	}
	return r
}
