package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/safetytracker/safetytracker/db"
	"github.com/safetytracker/safetytracker/internal/accesscontrol"
	"github.com/safetytracker/safetytracker/internal/auth"
	"github.com/safetytracker/safetytracker/internal/handlers"
	"github.com/safetytracker/safetytracker/internal/middleware"
	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/pkg/worker"
	"github.com/safetytracker/safetytracker/internal/repositories"
	"github.com/safetytracker/safetytracker/internal/router"
	"github.com/safetytracker/safetytracker/internal/services"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, conn, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() // nolint

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			return err
		}
	}

	gate, err := accesscontrol.NewPersistentGate(conn)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	pool, err := worker.New(context.Background(), "notifications", cfg.Worker.PoolSize)
	if err != nil {
		return err
	}

	userRepo := repositories.NewUserRepository(conn)
	notificationRepo := repositories.NewNotificationRepository(conn)
	hub := handlers.NewHub(pool, cfg.Server.AllowedOrigins)

	var events services.IncidentEvents
	webhooks := services.NewWebhookNotifier(cfg.Webhooks.DiscordURL, cfg.Webhooks.SlackURL, cfg.Webhooks.Timeout, pool)
	if webhooks.Enabled() {
		events = webhooks
	}

	incidentService := services.NewIncidentService(
		conn,
		repositories.NewIncidentRepository(conn),
		userRepo,
		repositories.NewActivityRepository(conn),
		services.NewNotifier(notificationRepo, hub),
		events,
		gate,
		services.IncidentServiceConfig{
			DefaultBanner:        cfg.Incidents.DefaultBanner,
			DashboardRecentLimit: cfg.Incidents.DashboardRecentLimit,
		},
	)
	userService := services.NewUserService(conn, userRepo)

	r := router.NewRouter(router.Deps{
		Auth: middleware.NewAuth(tokens, userService, gate, middleware.AuthConfig{
			CookieName:        cfg.Auth.CookieName,
			LoginURL:          cfg.Routes.LoginURL,
			ForbiddenRedirect: cfg.Routes.ForbiddenRedirect,
		}),
		AuthHandler: handlers.NewAuthHandler(userService, tokens, handlers.CookieConfig{
			Name:     cfg.Auth.CookieName,
			Domain:   cfg.Auth.CookieDomain,
			Secure:   cfg.Auth.CookieSecure,
			LoginURL: cfg.Routes.LoginURL,
		}),
		Incidents:      handlers.NewIncidentHandler(incidentService),
		Notifications:  handlers.NewNotificationHandler(services.NewNotificationService(notificationRepo, hub)),
		Dashboard:      handlers.NewDashboardHandler(incidentService),
		Health:         handlers.NewHealthHandler(conn, pool),
		Hub:            hub,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	pool.Shutdown(timeout)
	logger.Info("Server exited")
	return nil
}
