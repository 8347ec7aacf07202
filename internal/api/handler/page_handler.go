package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

var dashboardCrumb = domain.Breadcrumb{Label: "Dashboard", Href: "/app/dashboard"}

// PageHandler serves the data behind each dashboard page. Every page sets the
// chrome title and breadcrumbs before answering; the guard middleware has
// already decided the page may render.
type PageHandler struct {
	profiles     ports.ProfileService
	settings     ports.SettingsService
	chat         ports.ChatService
	integrations ports.IntegrationService
}

func NewPageHandler(
	profiles ports.ProfileService,
	settings ports.SettingsService,
	chat ports.ChatService,
	integrations ports.IntegrationService,
) *PageHandler {
	return &PageHandler{profiles: profiles, settings: settings, chat: chat, integrations: integrations}
}

// Login handles GET /login.
//
// @Summary      Login page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /login [get]
func (h *PageHandler) Login(c echo.Context) error {
	store := ctxChrome(c)
	store.SetPage("Entrar")
	return c.JSON(http.StatusOK, pageResponse{Chrome: store.Snapshot()})
}

// Dashboard handles GET /app/dashboard. Widget failures leave the widget empty
// rather than failing the page.
//
// @Summary      Dashboard page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse{data=dashboardData}
// @Failure      303
// @Router       /app/dashboard [get]
func (h *PageHandler) Dashboard(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	log := zerolog.Ctx(ctx)

	store := ctxChrome(c)
	store.SetPage("Dashboard", dashboardCrumb)

	var data dashboardData
	if data.Profile, err = h.profiles.Get(ctx, sess); err != nil {
		return err
	}
	if data.WhatsApp, err = h.integrations.Status(ctx, sess, domain.IntegrationWhatsApp); err != nil {
		log.Warn().Err(err).Msg("whatsapp status unavailable")
	}
	if data.GoogleCalendar, err = h.integrations.Status(ctx, sess, domain.IntegrationGoogleCalendar); err != nil {
		log.Warn().Err(err).Msg("google calendar status unavailable")
	}
	return c.JSON(http.StatusOK, pageResponse{Chrome: store.Snapshot(), Data: data})
}

// Onboarding handles GET /app/onboarding.
//
// @Summary      Onboarding page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse{data=messagesResponse}
// @Failure      303
// @Router       /app/onboarding [get]
func (h *PageHandler) Onboarding(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	store := ctxChrome(c)
	store.SetPage("Onboarding", domain.Breadcrumb{Label: "Onboarding", Href: "/app/onboarding"})

	conv, err := h.chat.Conversation(c.Request().Context(), sess, domain.ChatOnboarding)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse{
		Chrome: store.Snapshot(),
		Data:   messagesResponse{Messages: conv.Messages, Completed: conv.Completed},
	})
}

// Profile handles GET /app/profile.
//
// @Summary      Profile page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse{data=domain.Profile}
// @Failure      303
// @Router       /app/profile [get]
func (h *PageHandler) Profile(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	store := ctxChrome(c)
	store.SetPage("Perfil", dashboardCrumb, domain.Breadcrumb{Label: "Perfil"})

	p, err := h.profiles.Get(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse{Chrome: store.Snapshot(), Data: p})
}

// Settings handles GET /app/settings.
//
// @Summary      Settings page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse{data=settingsData}
// @Failure      303
// @Router       /app/settings [get]
func (h *PageHandler) Settings(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	store := ctxChrome(c)
	store.SetPage("Configurações", dashboardCrumb, domain.Breadcrumb{Label: "Configurações"})

	var data settingsData
	if data.Pix, err = h.settings.GetPix(ctx, sess); err != nil {
		return err
	}
	if data.GoogleCalendar, err = h.integrations.Status(ctx, sess, domain.IntegrationGoogleCalendar); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("google calendar status unavailable")
	}
	return c.JSON(http.StatusOK, pageResponse{Chrome: store.Snapshot(), Data: data})
}
