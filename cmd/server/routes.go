package main

import (
	"github.com/gin-gonic/gin"
	"github.com/techupgradenow/edumanage/internal/middleware"
	"github.com/techupgradenow/edumanage/pkg/logger"
	"github.com/techupgradenow/edumanage/pkg/response"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices, writeLimiter *middleware.RateLimiter) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.HandleMethodNotAllowed = true
	r.NoMethod(response.MethodNotAllowed)
	r.Use(middleware.CORS())

	r.GET("/health", svc.healthHandler.CheckHealth)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", writeLimiter.Middleware(), svc.authHandler.Login)
		}

		// Protected routes: reads for every user, writes for admins
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog(svc.activitySink))
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", writeLimiter.Middleware(), svc.authHandler.ChangePassword)

			dropdowns := protected.Group("/dropdowns", middleware.AdminForWrites(), writeLimiter.WritesOnly())
			{
				dropdowns.GET("", svc.dropdownHandler.Get)
				dropdowns.POST("", svc.dropdownHandler.Post)
				dropdowns.PUT("", svc.dropdownHandler.Update)
				dropdowns.DELETE("", svc.dropdownHandler.Delete)
			}

			institution := protected.Group("/institution", middleware.AdminForWrites(), writeLimiter.WritesOnly())
			{
				institution.GET("", svc.institutionHandler.Get)
				institution.POST("", svc.institutionHandler.Post)
			}

			activity := protected.Group("/activity-logs", middleware.AdminRequired())
			{
				activity.GET("", svc.activityLogHandler.List)
				activity.GET("/modules", svc.activityLogHandler.GetModules)
			}
		}
	}
}
