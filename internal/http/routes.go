package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tazhibayda/townboat/internal/domain"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Tracing("townboat"))
	r.Use(Metrics())
	r.Use(AccessLog())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/files/*path", h.File)

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.RateLimit("register"), h.Register)
		auth.POST("/login", h.RateLimit("login"), h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.AuthJWT(), h.Me)
		auth.GET("/google/start", h.GoogleStart)
		auth.GET("/google/callback", h.GoogleCallback)
	}

	api := r.Group("/api")
	api.GET("/realtime", h.OptionalAuth(), h.Realtime)
	api.GET("/leaderboard", h.Leaderboard)

	for coll := range publicLists {
		api.GET("/"+coll, h.OptionalAuth(), h.List(coll))
		api.DELETE("/"+coll+"/:id", h.AuthJWT(), h.Delete(coll))
		if _, ok := domain.ActorSetFor(coll); ok || coll == domain.ColPolls {
			api.POST("/"+coll+"/:id/:action", h.AuthJWT(), h.Act(coll))
		}
	}
	api.POST("/connections/:id/:action", h.AuthJWT(), h.Act(domain.ColConnections))

	member := api.Group("", h.AuthJWT())
	{
		rl := h.RateLimit("create")
		member.POST("/businesses", rl, create(h.Records.CreateBusiness))
		member.POST("/deals", rl, create(h.Records.CreateDeal))
		member.POST("/posts", rl, create(h.Records.CreatePost))
		member.POST("/comments", rl, create(h.Records.CreateComment))
		member.POST("/polls", rl, create(h.Records.CreatePoll))
		member.POST("/clubs", rl, create(h.Records.CreateClub))

		member.GET("/connections", h.MyConnections)
		member.POST("/connections", h.Connect)

		member.GET("/chat", h.Thread)
		member.POST("/chat", h.RateLimit("chat"), h.SendMessage)
		member.DELETE("/clubs/:id/chat", h.LeaveClubChat)

		member.POST("/files", h.Upload)
		member.DELETE("/files/*path", h.DeleteFile)

		member.GET("/bookmarks", h.ListBookmarks)
		member.PUT("/bookmarks/:id", h.Bookmark(true))
		member.DELETE("/bookmarks/:id", h.Bookmark(false))
		member.GET("/notifications", h.Notifications)
	}

	admin := api.Group("/admin", h.AuthJWT(), h.RequireAdmin())
	{
		admin.GET("/businesses", h.List(domain.ColBusinesses))
		admin.POST("/businesses/:id/status", h.Moderate)
	}

	r.NoRoute(func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"error": "not found"}) })
	return r
}
