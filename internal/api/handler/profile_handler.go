package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

// ProfileHandler serves the profile form and the PIX settings form.
type ProfileHandler struct {
	profiles ports.ProfileService
	settings ports.SettingsService
}

func NewProfileHandler(profiles ports.ProfileService, settings ports.SettingsService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, settings: settings}
}

// GetProfile handles GET /api/profile.
//
// @Summary      Get the physician profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /api/profile [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	p, err := h.profiles.Get(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateProfile handles PUT /api/profile. Required fields are checked before
// anything is sent upstream.
//
// @Summary      Replace the physician profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        body  body      profileRequest  true  "Profile"
// @Success      200   {object}  domain.Profile
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/profile [put]
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p, err := h.profiles.Update(c.Request().Context(), sess, req.toDomain())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// GetPix handles GET /api/settings/pix.
//
// @Summary      Get PIX payout settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  domain.PixSettings
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /api/settings/pix [get]
func (h *ProfileHandler) GetPix(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	pix, err := h.settings.GetPix(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pix)
}

// UpdatePix handles PUT /api/settings/pix.
//
// @Summary      Replace PIX payout settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      pixRequest  true  "PIX key"
// @Success      200   {object}  domain.PixSettings
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/settings/pix [put]
func (h *ProfileHandler) UpdatePix(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req pixRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	pix, err := h.settings.UpdatePix(c.Request().Context(), sess, domain.PixSettings{
		KeyType: domain.PixKeyType(req.KeyType),
		Key:     req.Key,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pix)
}
