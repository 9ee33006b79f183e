package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/safetytracker/safetytracker/internal/accesscontrol"
	"github.com/safetytracker/safetytracker/internal/handlers"
	"github.com/safetytracker/safetytracker/internal/middleware"
)

type Deps struct {
	Auth           *middleware.Auth
	AuthHandler    *handlers.AuthHandler
	Incidents      *handlers.IncidentHandler
	Notifications  *handlers.NotificationHandler
	Dashboard      *handlers.DashboardHandler
	Health         *handlers.HealthHandler
	Hub            *handlers.Hub
	AllowedOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	corsConfig := cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(d.AllowedOrigins) == 0 {
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	}
	r.Use(cors.New(corsConfig))
	r.Use(middleware.ErrorHandler())
	r.Use(d.Auth.LoadUser())

	loginRequired := d.Auth.RequireLogin()
	canUpdate := d.Auth.RequirePermission(accesscontrol.UpdateIncident)
	canViewDashboard := d.Auth.RequirePermission(accesscontrol.ViewDashboard)

	api := r.Group("/api")
	{
		api.GET("/health", d.Health.Check)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/notifications/", loginRequired, d.Hub.Serve)

	users := r.Group("/users")
	{
		users.POST("/register/", d.AuthHandler.Register)
		users.GET("/login/", d.AuthHandler.LoginForm)
		users.POST("/login/", d.AuthHandler.Login)
		users.POST("/logout/", d.AuthHandler.Logout)
		users.GET("/me/", loginRequired, d.AuthHandler.Me)
	}
	r.GET("/home/", d.AuthHandler.Home)

	notifications := r.Group("/notifications")
	{
		notifications.GET("/", loginRequired, d.Notifications.List)
		notifications.GET("/unread-count/", d.Notifications.UnreadCount)
		notifications.POST("/mark-all-read/", loginRequired, d.Notifications.MarkAllRead)
		notifications.POST("/:id/read/", loginRequired, d.Notifications.MarkRead)
	}

	r.GET("/manager-dashboard/", canViewDashboard, d.Dashboard.Show)

	r.GET("/", d.Incidents.List)
	r.GET("/new-incident/", loginRequired, d.Incidents.NewForm)
	r.POST("/new-incident/", loginRequired, d.Incidents.Create)
	r.GET("/my-incidents/", loginRequired, d.Incidents.MyIncidents)
	r.GET("/:slug/", d.Incidents.Detail)
	r.GET("/:slug/update-status/", canUpdate, d.Incidents.UpdateForm)
	r.POST("/:slug/update-status/", canUpdate, d.Incidents.Update)

	return r
}
