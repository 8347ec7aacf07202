package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/core/ports"
)

const defaultKeepAlive = 15 * time.Second

// RealtimeHandler streams the user's realtime notifications as server-sent
// events.
type RealtimeHandler struct {
	notifications ports.NotificationService
	keepAlive     time.Duration
}

// NewRealtimeHandler builds the stream handler. A zero keepAlive uses 15s.
func NewRealtimeHandler(notifications ports.NotificationService, keepAlive time.Duration) *RealtimeHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &RealtimeHandler{notifications: notifications, keepAlive: keepAlive}
}

// Stream handles GET /api/realtime/stream. Each notification is written as
// an event named after its table.
//
// @Summary      Realtime notifications
// @Tags         realtime
// @Produce      text/event-stream
// @Success      200
// @Failure      401  {object}  errorResponse
// @Router       /api/realtime/stream [get]
func (h *RealtimeHandler) Stream(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	ch, unsubscribe, err := h.notifications.Subscribe(ctx, sess)
	if err != nil {
		return err
	}
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(n)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Table, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
