package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/api/metrics"
	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

const (
	defaultHeartbeat      = 25 * time.Second
	defaultReconnectDelay = 5 * time.Second
	writeTimeout          = 10 * time.Second
	phoenixVersion        = "1.0.0"
)

// Phoenix channel events.
const (
	eventJoin        = "phx_join"
	eventReply       = "phx_reply"
	eventError       = "phx_error"
	eventClose       = "phx_close"
	eventHeartbeat   = "heartbeat"
	eventAccessToken = "access_token"
	eventChanges     = "postgres_changes"
)

// RealtimeConfig tunes the websocket client.
type RealtimeConfig struct {
	Heartbeat      time.Duration
	ReconnectDelay time.Duration
}

// Realtime subscribes to row inserts over the hosted realtime websocket.
type Realtime struct {
	endpoint       string
	anonKey        string
	heartbeat      time.Duration
	reconnectDelay time.Duration
	dialer         *websocket.Dialer
	log            zerolog.Logger
}

var _ ports.RealtimeSource = (*Realtime)(nil)

func NewRealtime(c *Client, cfg RealtimeConfig, log zerolog.Logger) *Realtime {
	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	reconnect := cfg.ReconnectDelay
	if reconnect <= 0 {
		reconnect = defaultReconnectDelay
	}
	endpoint := c.baseURL
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = "ws://" + strings.TrimPrefix(endpoint, "http://")
	}
	return &Realtime{
		endpoint:       endpoint + "/realtime/v1/websocket",
		anonKey:        c.anonKey,
		heartbeat:      heartbeat,
		reconnectDelay: reconnect,
		dialer:         websocket.DefaultDialer,
		log:            log,
	}
}

type phxMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
}

type changeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"`
}

type joinPayload struct {
	Config struct {
		Broadcast struct {
			Ack  bool `json:"ack"`
			Self bool `json:"self"`
		} `json:"broadcast"`
		Presence struct {
			Key string `json:"key"`
		} `json:"presence"`
		PostgresChanges []changeFilter `json:"postgres_changes"`
		Private         bool           `json:"private"`
	} `json:"config"`
	AccessToken string `json:"access_token"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changesPayload struct {
	Data struct {
		Table  string          `json:"table"`
		Type   string          `json:"type"`
		Record json.RawMessage `json:"record"`
	} `json:"data"`
}

// Subscribe keeps a channel per table joined until ctx is done, reconnecting
// after a fixed delay whenever the socket drops. It returns early only when
// the subscription's token can no longer be resolved.
func (r *Realtime) Subscribe(ctx context.Context, sub ports.RealtimeSubscription, sink func(domain.Notification)) error {
	log := r.log.With().Str("user_id", sub.UserID).Logger()
	for {
		err := r.session(ctx, sub, sink)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, domain.ErrUnauthenticated) {
			return err
		}
		log.Warn().Err(err).Dur("retry_in", r.reconnectDelay).Msg("realtime connection lost")
		if werr := wait(ctx, r.reconnectDelay); werr != nil {
			return werr
		}
		metrics.RealtimeReconnectsTotal.Inc()
	}
}

// session runs one websocket connection to completion.
func (r *Realtime) session(ctx context.Context, sub ports.RealtimeSubscription, sink func(domain.Notification)) error {
	token, err := sub.Token(ctx)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("apikey", r.anonKey)
	q.Set("vsn", phoenixVersion)
	conn, _, err := r.dialer.DialContext(ctx, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("realtime dial: %w", err)
	}

	s := &socket{conn: conn}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	topics := make([]string, 0, len(sub.Tables))
	for _, table := range sub.Tables {
		topic := "realtime:public:" + table
		topics = append(topics, topic)

		var join joinPayload
		join.Config.PostgresChanges = []changeFilter{{
			Event:  "INSERT",
			Schema: "public",
			Table:  table,
			Filter: "user_id=eq." + sub.UserID,
		}}
		join.AccessToken = token
		if err := s.send(topic, eventJoin, join); err != nil {
			return fmt.Errorf("realtime join %s: %w", table, err)
		}
	}

	go r.keepAlive(ctx, s, sub, topics, token)

	for {
		var msg phxMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("realtime read: %w", err)
		}
		switch msg.Event {
		case eventChanges:
			var p changesPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				r.log.Debug().Err(err).Str("topic", msg.Topic).Msg("malformed change payload")
				continue
			}
			sink(domain.Notification{
				Table:  p.Data.Table,
				Event:  p.Data.Type,
				UserID: sub.UserID,
				Record: p.Data.Record,
			})
		case eventReply:
			var p replyPayload
			if err := json.Unmarshal(msg.Payload, &p); err == nil && p.Status == "error" && msg.Topic != "phoenix" {
				return fmt.Errorf("realtime join %s rejected: %s", msg.Topic, string(p.Response))
			}
		case eventError, eventClose:
			return fmt.Errorf("realtime channel %s: %s", msg.Topic, msg.Event)
		}
	}
}

// keepAlive sends the heartbeat and pushes a new access token to every
// joined channel when the session's token rotates.
func (r *Realtime) keepAlive(ctx context.Context, s *socket, sub ports.RealtimeSubscription, topics []string, token string) {
	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := s.send("phoenix", eventHeartbeat, struct{}{}); err != nil {
			return
		}
		next, err := sub.Token(ctx)
		if errors.Is(err, domain.ErrUnauthenticated) {
			// The session is gone; dropping the socket ends Subscribe.
			_ = s.conn.Close()
			return
		}
		if err != nil || next == token {
			continue
		}
		token = next
		for _, topic := range topics {
			if err := s.send(topic, eventAccessToken, map[string]string{"access_token": token}); err != nil {
				return
			}
		}
	}
}

// socket serialises writes; gorilla connections allow one concurrent writer.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
	ref  int
}

func (s *socket) send(topic, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref++
	ref := strconv.Itoa(s.ref)
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(phxMessage{Topic: topic, Event: event, Payload: raw, Ref: &ref})
}
