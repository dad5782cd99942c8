package http

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
)

// noFlash drops flash messages when sessions are disabled.
type noFlash struct{}

func (noFlash) AddFlash(context.Context, string, string) {}

// limitBody caps request bodies so oversized uploads fail while parsing.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.MaxUploadSize > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadSize
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	var flasher Flasher = noFlash{}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
		flasher = cfg.SessionManager
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.LoadUser())
	}

	if cfg.Templates != nil {
		router.SetHTMLTemplate(cfg.Templates)
	}
	if cfg.StaticFS != nil {
		router.StaticFS("/static", cfg.StaticFS)
	}
	if cfg.UploadsRoot != "" {
		// Only covers are public; book files go through the counted download route.
		router.Static("/uploads/"+config.CoversSubfolder, filepath.Join(cfg.UploadsRoot, config.CoversSubfolder))
	}

	render := NewPageRenderer(cfg.SessionManager).Render

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	// Public catalog
	catalog := NewCatalogController(cfg.Books, cfg.Recorder, cfg.Files, flasher, render)
	router.GET("/", catalog.Index)
	router.GET("/book/:id", catalog.BookDetail)
	router.GET("/book/:id/download", catalog.Download)

	// Analytics API
	api := NewAPIController(cfg.Recorder)
	router.POST("/api/book/:id/share", api.ShareBook)
	router.POST("/api/track", api.TrackEvent)

	// Login and logout
	if cfg.AuthService != nil && cfg.SessionManager != nil {
		auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.RateLimiter, auth.Renderer(render)).RegisterRoutes(router)
	}

	// Admin area
	if cfg.AuthMiddleware != nil {
		admin := router.Group("/admin", cfg.AuthMiddleware.RequireAdmin())

		adminController := NewAdminController(cfg.Books, cfg.Analytics, cfg.Files, flasher, render)
		admin.GET("", adminController.Dashboard)
		admin.GET("/books", adminController.ManageBooks)
		admin.GET("/books/add", adminController.AddBookPage)
		admin.POST("/books/add", limitBody(cfg.MaxUploadSize), adminController.AddBook)
		admin.GET("/books/edit/:id", adminController.EditBookPage)
		admin.POST("/books/edit/:id", limitBody(cfg.MaxUploadSize), adminController.EditBook)
		admin.POST("/books/delete/:id", adminController.DeleteBook)
		admin.GET("/analytics", adminController.AnalyticsPage)

		// Maintenance queue (optional)
		if cfg.TaskQueue != nil {
			tasksController := NewTasksController(cfg.TaskQueue, cfg.Scheduler, flasher, render)
			admin.GET("/tasks", tasksController.TasksPage)
			admin.GET("/tasks/:id", tasksController.GetTaskStatus)
			admin.POST("/tasks/:type/run", tasksController.RunTask)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		renderError(c, render, http.StatusNotFound, "Page not found")
	})

	return router
}
