package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/drbrain/dashboard/internal/api"
	"github.com/drbrain/dashboard/internal/api/handler"
	"github.com/drbrain/dashboard/internal/core/service"
	mongostore "github.com/drbrain/dashboard/internal/infrastructure/db/mongo"
	redisstore "github.com/drbrain/dashboard/internal/infrastructure/db/redis"
	"github.com/drbrain/dashboard/internal/infrastructure/http/handlers"
	"github.com/drbrain/dashboard/internal/infrastructure/queue"
	"github.com/drbrain/dashboard/internal/infrastructure/supabase"
	"github.com/drbrain/dashboard/internal/pkg/config"
	"github.com/drbrain/dashboard/pkg/logger"
)

const (
	onboardingPath  = "/app/onboarding"
	resetPath       = "/reset-password"
	shutdownTimeout = 15 * time.Second
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Process(cmd.Context(), envconfig.OsLookuper())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if port != "" {
				cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "drbrain",
		Version: version,
	})

	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	sessions := mongostore.NewSessionRepository(db, cfg.Mongo.SessionTTL)
	if err := sessions.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("session indexes: %w", err)
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()
	cache := redisstore.NewQueryCache(rdb, cfg.Redis.ProfileTTL)

	// --- Hosted backend ---
	backend := supabase.NewClient(supabase.Config{
		URL:     cfg.Supabase.URL,
		AnonKey: cfg.Supabase.AnonKey,
		Timeout: cfg.Supabase.Timeout,
	}, logger.Component("supabase"))
	functions := supabase.NewFunctions(backend)
	realtime := supabase.NewRealtime(backend, supabase.RealtimeConfig{
		Heartbeat:      cfg.Supabase.Heartbeat,
		ReconnectDelay: cfg.Supabase.ReconnectDelay,
	}, logger.Component("realtime"))

	// --- Services ---
	authService := service.NewAuthService(supabase.NewAuth(backend), sessions, cfg.Session.RefreshMargin, logger.Component("auth"))
	profiles := service.NewProfileService(functions, cache, logger.Component("profile"))
	settings := service.NewSettingsService(functions, logger.Component("settings"))
	chat := service.NewChatService(functions, profiles, cfg.Chat.CompletionDelay, cfg.Chat.MaxAudioBytes, logger.Component("chat"))
	integrations := service.NewIntegrationService(functions, authService, cfg.Polling.WhatsApp, cfg.Polling.Calendar, logger.Component("integrations"))
	notifications := service.NewNotificationService(realtime, authService, logger.Component("notifications"))
	guard := service.NewGuard(profiles, onboardingPath, service.ProfileRetry, logger.Component("guard"))

	dispatcher := queue.NewDispatcher(cfg.Dispatcher.Workers, notifications, logger.Component("dispatcher"))
	dispatcher.Start(ctx)
	notifications.RouteThrough(dispatcher)

	e := api.NewRouter(api.Services{
		Auth:          authService,
		Profiles:      profiles,
		Settings:      settings,
		Chat:          chat,
		Integrations:  integrations,
		Notifications: notifications,
		Guard:         guard,
		Chrome:        service.NewChromeRegistry(),
	}, api.Options{
		Log:       log,
		JWTSecret: cfg.JWTSecret,
		Cookie: handler.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.SecureCookie || cfg.IsProduction(),
			MaxAge: cfg.Mongo.SessionTTL,
		},
		ResetURL:      strings.TrimRight(cfg.PublicURL, "/") + resetPath,
		MaxAudioBytes: cfg.Chat.MaxAudioBytes,
		Probes: []handlers.Dependency{
			{Name: "mongo", Pinger: mongostore.Pinger{Client: mongoClient}},
			{Name: "redis", Pinger: redisstore.Pinger{Client: rdb}},
			{Name: "backend", Pinger: handlers.PingFunc(backend.Health)},
		},
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	integrations.Close()
	notifications.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
