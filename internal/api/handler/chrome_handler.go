package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type ChromeHandler struct{}

func NewChromeHandler() *ChromeHandler { return &ChromeHandler{} }

// Get handles GET /api/chrome.
//
// @Summary      Current layout state
// @Tags         chrome
// @Produce      json
// @Success      200  {object}  domain.Chrome
// @Failure      401  {object}  errorResponse
// @Router       /api/chrome [get]
func (h *ChromeHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, ctxChrome(c).Snapshot())
}

// SetFeedbackModal handles PUT /api/chrome/feedback-modal.
//
// @Summary      Open or close the feedback modal
// @Tags         chrome
// @Accept       json
// @Produce      json
// @Param        body  body      feedbackModalRequest  true  "Modal state"
// @Success      200   {object}  domain.Chrome
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/chrome/feedback-modal [put]
func (h *ChromeHandler) SetFeedbackModal(c echo.Context) error {
	var req feedbackModalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	store := ctxChrome(c)
	store.SetFeedbackModal(*req.Open)
	return c.JSON(http.StatusOK, store.Snapshot())
}
