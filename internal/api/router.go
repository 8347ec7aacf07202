package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/drbrain/dashboard/docs"
	"github.com/drbrain/dashboard/internal/api/handler"
	"github.com/drbrain/dashboard/internal/api/middleware"
	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
	"github.com/drbrain/dashboard/internal/core/service"
	probes "github.com/drbrain/dashboard/internal/infrastructure/http"
	"github.com/drbrain/dashboard/internal/infrastructure/http/handlers"
)

const loginPath = "/login"

// Services are the core services the HTTP layer exposes.
type Services struct {
	Auth          ports.AuthService
	Profiles      ports.ProfileService
	Settings      ports.SettingsService
	Chat          ports.ChatService
	Integrations  ports.IntegrationService
	Notifications ports.NotificationService
	Guard         *service.Guard
	Chrome        *service.ChromeRegistry
}

// Options tune the HTTP layer.
type Options struct {
	Log           zerolog.Logger
	JWTSecret     string
	Cookie        handler.CookieOptions
	ResetURL      string
	MaxAudioBytes int
	KeepAlive     time.Duration
	Probes        []handlers.Dependency
	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(opts.Log))
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if opts.Registry != nil {
		registerer, gatherer = opts.Registry, opts.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "drbrain",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/api/realtime/stream"
		},
	}))

	// --- Handlers ---
	forget := handler.Forgetters{svc.Chrome}
	if svc.Chat != nil {
		forget = append(forget, svc.Chat)
	}
	if svc.Integrations != nil {
		forget = append(forget, svc.Integrations)
	}
	authHandler := handler.NewAuthHandler(svc.Auth, forget, opts.Cookie, opts.ResetURL)
	profileHandler := handler.NewProfileHandler(svc.Profiles, svc.Settings)
	chatHandler := handler.NewChatHandler(svc.Chat, opts.MaxAudioBytes)
	integrationHandler := handler.NewIntegrationHandler(svc.Integrations)
	chromeHandler := handler.NewChromeHandler()
	pageHandler := handler.NewPageHandler(svc.Profiles, svc.Settings, svc.Chat, svc.Integrations)
	realtimeHandler := handler.NewRealtimeHandler(svc.Notifications, opts.KeepAlive)

	session := middleware.Session(svc.Auth, middleware.SessionOptions{
		CookieName: opts.Cookie.Name,
		JWTSecret:  opts.JWTSecret,
	})
	chrome := middleware.Chrome(svc.Chrome)

	// --- Auth routes ---
	auth := e.Group("/auth", session)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/reset", authHandler.Reset)
	auth.POST("/password", authHandler.Password, middleware.RequireSession())
	auth.GET("/session", authHandler.Session, middleware.RequireSession())

	// --- Pages ---
	e.GET(loginPath, pageHandler.Login)
	app := e.Group("/app", session, middleware.Guard(svc.Guard, loginPath), chrome)
	app.GET("/dashboard", pageHandler.Dashboard)
	app.GET("/onboarding", pageHandler.Onboarding)
	app.GET("/profile", pageHandler.Profile)
	app.GET("/settings", pageHandler.Settings)

	// --- API ---
	apiGroup := e.Group("/api", session, middleware.RequireSession(), chrome)
	apiGroup.GET("/profile", profileHandler.GetProfile)
	apiGroup.PUT("/profile", profileHandler.UpdateProfile)
	apiGroup.GET("/settings/pix", profileHandler.GetPix)
	apiGroup.PUT("/settings/pix", profileHandler.UpdatePix)

	apiGroup.GET("/chat/:kind/messages", chatHandler.List)
	apiGroup.POST("/chat/:kind/messages", chatHandler.Send)
	apiGroup.DELETE("/chat/:kind/messages", chatHandler.Clear)

	apiGroup.GET("/integrations/whatsapp", integrationHandler.Status(domain.IntegrationWhatsApp))
	apiGroup.POST("/integrations/whatsapp/connect", integrationHandler.Connect(domain.IntegrationWhatsApp))
	apiGroup.GET("/integrations/google-calendar", integrationHandler.Status(domain.IntegrationGoogleCalendar))
	apiGroup.POST("/integrations/google-calendar/connect", integrationHandler.Connect(domain.IntegrationGoogleCalendar))
	apiGroup.POST("/integrations/google-calendar/disconnect", integrationHandler.Disconnect(domain.IntegrationGoogleCalendar))

	apiGroup.GET("/chrome", chromeHandler.Get)
	apiGroup.PUT("/chrome/feedback-modal", chromeHandler.SetFeedbackModal)

	apiGroup.GET("/realtime/stream", realtimeHandler.Stream)

	// --- Operations (no auth required) ---
	probes.RegisterProbes(e, opts.Probes...)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
