package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

// IntegrationHandler serves the WhatsApp and Google Calendar status widgets.
type IntegrationHandler struct {
	integrations ports.IntegrationService
}

func NewIntegrationHandler(integrations ports.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{integrations: integrations}
}

// Status answers with the integration's last known status and keeps polling
// in the background until it is connected.
//
// @Summary      Integration status
// @Tags         integrations
// @Produce      json
// @Success      200  {object}  domain.ConnectionStatus
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /api/integrations/whatsapp [get]
// @Router       /api/integrations/google-calendar [get]
func (h *IntegrationHandler) Status(in domain.Integration) echo.HandlerFunc {
	return h.call(in, h.integrations.Status)
}

// Connect starts linking the integration and answers with the pairing
// material: a WhatsApp pairing code or QR, or the Calendar consent URL.
//
// @Summary      Start linking an integration
// @Tags         integrations
// @Produce      json
// @Success      200  {object}  domain.ConnectionStatus
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /api/integrations/whatsapp/connect [post]
// @Router       /api/integrations/google-calendar/connect [post]
func (h *IntegrationHandler) Connect(in domain.Integration) echo.HandlerFunc {
	return h.call(in, h.integrations.Connect)
}

// Disconnect unlinks the integration.
//
// @Summary      Unlink an integration
// @Tags         integrations
// @Produce      json
// @Success      200  {object}  domain.ConnectionStatus
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /api/integrations/google-calendar/disconnect [post]
func (h *IntegrationHandler) Disconnect(in domain.Integration) echo.HandlerFunc {
	return h.call(in, h.integrations.Disconnect)
}

type integrationCall func(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error)

func (h *IntegrationHandler) call(in domain.Integration, fn integrationCall) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := ctxSession(c)
		if err != nil {
			return err
		}
		st, err := fn(c.Request().Context(), sess, in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, st)
	}
}
