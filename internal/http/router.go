package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterDeps carries the middlewares and file system the routes are
// mounted with.
type RouterDeps struct {
	Auth            gin.HandlerFunc
	SubmissionLimit gin.HandlerFunc
	Media           http.FileSystem
	MaxUploadBytes  int64
}

func NewRouter(handler *Handler, deps RouterDeps, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type", "Retry-After"},
		MaxAge:          12 * time.Hour,
	}))
	if deps.MaxUploadBytes > 0 {
		// Multipart parts beyond this spill to temp files.
		router.MaxMultipartMemory = deps.MaxUploadBytes + 1<<20
	}

	router.GET("/healthz", handler.health)
	if deps.Media != nil {
		router.StaticFS("/media", deps.Media)
	}

	api := router.Group("/api/v1")

	api.POST("/auth/signup", handler.signup)
	api.POST("/auth/login", handler.login)
	api.GET("/public/complaints", handler.publicBoard)

	api.POST("/drafts", handler.createDraft)
	if deps.SubmissionLimit != nil {
		api.POST("/complaints", deps.SubmissionLimit, handler.createComplaint)
	} else {
		api.POST("/complaints", handler.createComplaint)
	}

	protected := api.Group("")
	protected.Use(deps.Auth)
	{
		protected.GET("/complaints", handler.listComplaints)
		protected.GET("/complaints/:id", handler.getComplaint)
		protected.GET("/complaints/:id/history", handler.complaintHistory)
		protected.POST("/complaints/:id/resolve", handler.resolveComplaint)
		protected.POST("/complaints/:id/deny", handler.denyComplaint)

		protected.GET("/dashboard", handler.dashboard)
		protected.GET("/dashboard/stream", handler.streamDashboard)
	}

	return router
}
