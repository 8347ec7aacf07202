package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

// ChatHandler serves the onboarding and feedback conversations.
type ChatHandler struct {
	chat          ports.ChatService
	maxAudioBytes int64
}

func NewChatHandler(chat ports.ChatService, maxAudioBytes int) *ChatHandler {
	return &ChatHandler{chat: chat, maxAudioBytes: int64(maxAudioBytes)}
}

// List handles GET /api/chat/:kind/messages.
//
// @Summary      List conversation messages
// @Tags         chat
// @Produce      json
// @Param        kind  path      string  true  "onboarding or feedback"
// @Success      200   {object}  messagesResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/chat/{kind}/messages [get]
func (h *ChatHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	conv, err := h.chat.Conversation(c.Request().Context(), sess, domain.ChatKind(c.Param("kind")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messagesResponse{Messages: conv.Messages, Completed: conv.Completed})
}

// Send handles POST /api/chat/:kind/messages. A JSON or form body sends
// text; a multipart body with an "audio" file sends a recording. A failed
// send still answers 200 with failed=true and the appended error message.
// completed=true tells the onboarding page to move on.
//
// @Summary      Send a chat message
// @Tags         chat
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        kind   path      string           true   "onboarding or feedback"
// @Param        body   body      chatTextRequest  false  "Text message"
// @Param        audio  formData  file             false  "Recorded audio"
// @Success      200    {object}  sendResponse
// @Failure      401    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Failure      413    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Router       /api/chat/{kind}/messages [post]
func (h *ChatHandler) Send(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	kind := domain.ChatKind(c.Param("kind"))
	ctx := c.Request().Context()

	var res *ports.SendResult
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		audio, mimeType, err := h.readAudio(c)
		if err != nil {
			return err
		}
		res, err = h.chat.SendAudio(ctx, sess, kind, audio, mimeType)
		if err != nil {
			return err
		}
	} else {
		var req chatTextRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		if err := c.Validate(&req); err != nil {
			return err
		}
		res, err = h.chat.SendText(ctx, sess, kind, req.Text)
		if err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, sendResponse{Messages: res.Appended, Failed: res.Failed, Completed: res.Completed})
}

// Clear handles DELETE /api/chat/:kind/messages.
//
// @Summary      Clear a conversation
// @Tags         chat
// @Param        kind  path  string  true  "onboarding or feedback"
// @Success      204
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/chat/{kind}/messages [delete]
func (h *ChatHandler) Clear(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.chat.Clear(c.Request().Context(), sess, domain.ChatKind(c.Param("kind"))); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ChatHandler) readAudio(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("audio")
	if err != nil {
		return nil, "", &domain.ValidationError{Fields: []string{"audio is required"}}
	}
	if h.maxAudioBytes > 0 && fh.Size > h.maxAudioBytes {
		return nil, "", echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("audio must be at most %d bytes", h.maxAudioBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "unreadable audio upload")
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxAudioBytes > 0 {
		r = io.LimitReader(f, h.maxAudioBytes)
	}
	audio, err := io.ReadAll(r)
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "unreadable audio upload")
	}
	mimeType := fh.Header.Get(echo.HeaderContentType)
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return audio, mimeType, nil
}
